package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyward/status-engine/ledger"
	"github.com/skyward/status-engine/qualification"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func flightEv(member string, date time.Time, points, secondary float64, key string) ledger.PointEvent {
	return ledger.PointEvent{
		ID:              ledger.EventID(key),
		MemberID:        ledger.MemberID(member),
		Kind:            ledger.KindFlight,
		OccurredAt:      date,
		Points:          qualification.NewPoints(points, qualification.UnitXP),
		SecondaryPoints: qualification.NewPoints(secondary, qualification.UnitUXP),
		IdempotencyKey:  key,
	}
}

func bonusEv(member string, date time.Time, points float64, key string) ledger.PointEvent {
	return ledger.PointEvent{
		ID:             ledger.EventID(key),
		MemberID:       ledger.MemberID(member),
		Kind:           ledger.KindBonus,
		OccurredAt:     date,
		Points:         qualification.NewPoints(points, qualification.UnitXP),
		IdempotencyKey: key,
	}
}

func correctionEv(member string, date time.Time, points float64, key string) ledger.PointEvent {
	return ledger.PointEvent{
		ID:             ledger.EventID(key),
		MemberID:       ledger.MemberID(member),
		Kind:           ledger.KindCorrection,
		OccurredAt:     date,
		Points:         qualification.NewPoints(points, qualification.UnitXP),
		IdempotencyKey: key,
	}
}

func scheduledEv(member string, date time.Time, points float64, key string) ledger.PointEvent {
	ev := flightEv(member, date, points, 0, key)
	ev.Scheduled = true
	return ev
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// MONTHLY BUCKETING
// =============================================================================

func TestBuildEntries_BucketsEventsByMonth(t *testing.T) {
	// GIVEN: Two February events and one March event
	// WHEN: Folding into monthly entries
	// THEN: Two entries with per-month sums on both counters

	events := []ledger.PointEvent{
		flightEv("m-1", day(2024, time.February, 10), 50, 20, "ev-1"),
		bonusEv("m-1", day(2024, time.February, 20), 30, "ev-2"),
		flightEv("m-1", day(2024, time.March, 5), 40, 40, "ev-3"),
	}

	entries := ledger.BuildEntries(events, qualification.Month{}, qualification.Month{})

	require.Len(t, entries, 2)
	feb, mar := entries[0], entries[1]
	assert.Equal(t, "2024-02", feb.Month.String())
	assert.True(t, feb.ActualPoints.Equal(qualification.NewPoints(80, qualification.UnitXP)), "feb actual should be 80, got %s", feb.ActualPoints)
	assert.True(t, feb.SecondaryPoints.Equal(qualification.NewPoints(20, qualification.UnitUXP)), "bonus carries no secondary share")
	assert.True(t, mar.ActualPoints.Equal(qualification.NewPoints(40, qualification.UnitXP)))
	assert.True(t, mar.SecondaryPoints.Equal(qualification.NewPoints(40, qualification.UnitUXP)))
}

func TestBuildEntries_CorrectionNetsIntoActuals(t *testing.T) {
	// GIVEN: A flight and a -30 correction in the same month
	// WHEN: Folding
	// THEN: Actuals are net, the correction is also visible on its own field

	events := []ledger.PointEvent{
		flightEv("m-1", day(2024, time.May, 2), 100, 60, "ev-1"),
		correctionEv("m-1", day(2024, time.May, 20), -30, "ev-2"),
	}

	entries := ledger.BuildEntries(events, qualification.Month{}, qualification.Month{})

	require.Len(t, entries, 1)
	e := entries[0]
	assert.True(t, e.ActualPoints.Equal(qualification.NewPoints(70, qualification.UnitXP)), "expected net 70, got %s", e.ActualPoints)
	assert.True(t, e.Correction.Equal(qualification.NewPoints(-30, qualification.UnitXP)), "expected correction -30, got %s", e.Correction)
	assert.True(t, e.SecondaryPoints.Equal(qualification.NewPoints(60, qualification.UnitUXP)))
}

func TestBuildEntries_ScheduledStaysOutOfActuals(t *testing.T) {
	// GIVEN: A flown flight and a booked one two months out
	// WHEN: Folding
	// THEN: The booking shows as scheduled points in its own future month

	events := []ledger.PointEvent{
		flightEv("m-1", day(2024, time.June, 3), 45, 45, "ev-1"),
		scheduledEv("m-1", day(2024, time.August, 22), 120, "ev-2"),
	}

	entries := ledger.BuildEntries(events, qualification.Month{}, qualification.Month{})

	require.Len(t, entries, 3, "june through august")
	august := entries[2]
	assert.True(t, august.ActualPoints.IsZero(), "a booking is not an actual")
	assert.True(t, august.ScheduledPoints.Equal(qualification.NewPoints(120, qualification.UnitXP)))
}

// =============================================================================
// PADDING
// =============================================================================

func TestBuildEntries_PadsQuietMonths(t *testing.T) {
	events := []ledger.PointEvent{
		flightEv("m-1", day(2024, time.January, 5), 10, 0, "ev-1"),
		flightEv("m-1", day(2024, time.April, 5), 10, 0, "ev-2"),
	}

	entries := ledger.BuildEntries(events, qualification.Month{}, qualification.Month{})

	require.Len(t, entries, 4, "january through april, gaps included")
	assert.True(t, entries[1].IsZero(), "february should be an explicit zero month")
	assert.True(t, entries[2].IsZero(), "march should be an explicit zero month")
}

func TestBuildEntries_ThroughExtendsPastLastEvent(t *testing.T) {
	// Padding to the present is what lets boundary settlements fire for
	// idle members.

	events := []ledger.PointEvent{
		flightEv("m-1", day(2024, time.January, 5), 10, 0, "ev-1"),
	}

	entries := ledger.BuildEntries(events, qualification.Month{}, qualification.NewMonth(2024, time.December))

	require.Len(t, entries, 12)
	assert.Equal(t, "2024-12", entries[11].Month.String())
	assert.True(t, entries[11].IsZero())
}

func TestBuildEntries_FromExtendsBeforeFirstEvent(t *testing.T) {
	events := []ledger.PointEvent{
		flightEv("m-1", day(2024, time.March, 5), 10, 0, "ev-1"),
	}

	entries := ledger.BuildEntries(events, qualification.NewMonth(2024, time.January), qualification.Month{})

	require.Len(t, entries, 3)
	assert.Equal(t, "2024-01", entries[0].Month.String())
	assert.True(t, entries[0].IsZero())
}

func TestBuildEntries_NoEventsNoSpan_Empty(t *testing.T) {
	entries := ledger.BuildEntries(nil, qualification.Month{}, qualification.Month{})

	assert.Empty(t, entries)
}

func TestBuildEntries_NoEventsWithSpan_AllZeros(t *testing.T) {
	entries := ledger.BuildEntries(nil,
		qualification.NewMonth(2024, time.January),
		qualification.NewMonth(2024, time.June))

	require.Len(t, entries, 6)
	for _, e := range entries {
		assert.True(t, e.IsZero(), "month %s should be zero", e.Month)
	}
}
