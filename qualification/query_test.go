package qualification_test

import (
	"errors"
	"testing"
	"time"

	"github.com/skyward/status-engine/qualification"
)

// Note: helpers are defined in builder_test.go and secondary_test.go.

// journeyResult is a three-cycle history: explorer promoted in March 2024,
// silver promoted in September 2024, gold still open.
func journeyResult(t *testing.T) qualification.Result {
	t.Helper()
	engine := newEngine(t)
	entries := []qualification.LedgerEntry{
		earn(2024, time.March, 120),
		earn(2024, time.September, 160),
	}
	res := engine.Compute(entries, cfg(2024, time.January, qualification.TierExplorer))
	if len(res.Cycles) != 3 {
		t.Fatalf("fixture should build 3 cycles, got %d", len(res.Cycles))
	}
	return res
}

// =============================================================================
// ACTIVE CYCLE LOOKUP
// =============================================================================

func TestFindActiveCycle_ContainingDate(t *testing.T) {
	res := journeyResult(t)

	c, err := qualification.FindActiveCycle(res.Cycles, date(2024, time.June, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.StartingTier != qualification.TierSilver {
		t.Errorf("June 2024 falls in the silver cycle, got %s", c.StartingTier)
	}
}

func TestFindActiveCycle_BoundaryDate_BelongsToNextCycle(t *testing.T) {
	res := journeyResult(t)

	// The silver cycle ends 2024-10-01 exclusive.
	c, err := qualification.FindActiveCycle(res.Cycles, date(2024, time.October, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.StartingTier != qualification.TierGold {
		t.Errorf("an end date belongs to the following cycle, got %s", c.StartingTier)
	}
}

func TestFindActiveCycle_BeforeFirstCycle_ReturnsFirst(t *testing.T) {
	res := journeyResult(t)

	c, err := qualification.FindActiveCycle(res.Cycles, date(2020, time.January, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.StartDate.Equal(res.Cycles[0].StartDate) {
		t.Errorf("expected the first cycle, got the one starting %s", c.StartDate)
	}
}

func TestFindActiveCycle_BeyondAllCycles_ReturnsLast(t *testing.T) {
	res := journeyResult(t)

	c, err := qualification.FindActiveCycle(res.Cycles, date(2040, time.January, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.StartDate.Equal(res.Cycles[2].StartDate) {
		t.Errorf("expected the last cycle, got the one starting %s", c.StartDate)
	}
}

func TestFindActiveCycle_EmptySequence_Errors(t *testing.T) {
	_, err := qualification.FindActiveCycle(nil, time.Now())

	if !errors.Is(err, qualification.ErrNoCycles) {
		t.Errorf("expected ErrNoCycles, got %v", err)
	}
}

// =============================================================================
// RANGE QUERIES
// =============================================================================

func TestCyclesInRange_OverlapIsHalfOpen(t *testing.T) {
	res := journeyResult(t)

	// [2024-01-01, 2024-04-01) touches only the explorer cycle; the silver
	// cycle starts exactly at the range end.
	got := qualification.CyclesInRange(res.Cycles, date(2024, time.January, 1), date(2024, time.April, 1))

	if len(got) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(got))
	}
	if got[0].StartingTier != qualification.TierExplorer {
		t.Errorf("expected the explorer cycle, got %s", got[0].StartingTier)
	}
}

func TestCyclesInRange_SpanningAll(t *testing.T) {
	res := journeyResult(t)

	got := qualification.CyclesInRange(res.Cycles, date(2023, time.January, 1), date(2030, time.January, 1))

	if len(got) != 3 {
		t.Errorf("expected all 3 cycles, got %d", len(got))
	}
}

// =============================================================================
// EFFECTIVE STANDING
// =============================================================================

func TestEffectiveTier_PrimaryOnly(t *testing.T) {
	res := journeyResult(t)

	if tier := res.EffectiveTier(date(2024, time.June, 15)); tier != qualification.TierSilver {
		t.Errorf("expected silver, got %s", tier)
	}
	if tier := res.EffectiveTier(date(2025, time.February, 1)); tier != qualification.TierGold {
		t.Errorf("expected gold, got %s", tier)
	}
}

func TestEffectiveTier_SecondaryStandingLifts(t *testing.T) {
	// GIVEN: A platinum member crossing the secondary threshold in March
	// WHEN: Asking for standing before and after the crossing
	// THEN: Platinum before, ultimate while the top-standing window runs

	engine := newEngine(t)
	entries := []qualification.LedgerEntry{
		flight(2024, time.February, 500, 500),
		flight(2024, time.March, 420, 420),
	}
	res := engine.Compute(entries, cfg(2024, time.January, qualification.TierPlatinum))

	if tier := res.EffectiveTier(date(2024, time.February, 10)); tier != qualification.TierPlatinum {
		t.Errorf("expected platinum before the crossing, got %s", tier)
	}
	if tier := res.EffectiveTier(date(2024, time.June, 10)); tier != qualification.TierUltimate {
		t.Errorf("expected ultimate during the top-standing window, got %s", tier)
	}
}

// =============================================================================
// PROGRESS
// =============================================================================

func TestProgress_MidLadder_ReportsNextStep(t *testing.T) {
	engine := newEngine(t)
	entries := []qualification.LedgerEntry{earn(2024, time.February, 120)}
	res := engine.Compute(entries, cfg(2024, time.January, qualification.TierSilver))

	p, err := res.Progress(date(2024, time.June, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Current != qualification.TierSilver {
		t.Errorf("expected silver, got %s", p.Current)
	}
	if p.Next != qualification.TierGold {
		t.Errorf("expected gold next, got %s", p.Next)
	}
	if !p.Balance.Equal(xp(120)) {
		t.Errorf("expected 120 banked, got %s", p.Balance)
	}
	if !p.Needed.Equal(xp(60)) {
		t.Errorf("expected 60 missing, got %s", p.Needed)
	}
	if p.AtTop {
		t.Error("silver is not the top")
	}
}

func TestProgress_AtTopOfLadder(t *testing.T) {
	engine := newEngine(t)
	res := engine.Compute(nil, cfg(2024, time.January, qualification.TierPlatinum))

	p, err := res.Progress(date(2024, time.June, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.AtTop {
		t.Error("platinum tops the primary ladder")
	}
	if !p.Needed.IsZero() {
		t.Errorf("nothing is missing at the top, got %s", p.Needed)
	}
}

func TestProgress_NoCycles_Errors(t *testing.T) {
	var res qualification.Result

	_, err := res.Progress(time.Now())

	if !errors.Is(err, qualification.ErrNoCycles) {
		t.Errorf("expected ErrNoCycles, got %v", err)
	}
}
