/*
assemble.go - folding events into monthly ledger entries

PURPOSE:
  The qualification engine consumes whole months, one entry per month,
  contiguous from the cycle start to the present. BuildEntries produces
  that shape from raw events: it buckets events by calendar month, nets
  corrections into actuals, separates scheduled points, and pads the
  quiet months with zero entries so the walk keeps advancing while a
  member is idle.

KEY CONCEPTS:
  - Padding: requalification and soft landing happen at boundaries the
    member may sleep through. Zero entries up to `through` are what let
    those boundaries fire.
  - Corrections land in actual points AND in the correction field, so
    monthly statements can show the adjustment separately.

SEE ALSO:
  - events.go: the event shape
  - qualification: the engine consuming the output
*/
package ledger

import (
	"github.com/skyward/status-engine/qualification"
)

// BuildEntries folds events into one ledger entry per calendar month,
// contiguous from `from` (or the earliest event) through `through` (or
// the latest event). Zero months are emitted, not skipped.
func BuildEntries(events []PointEvent, from, through qualification.Month) []qualification.LedgerEntry {
	type bucket struct {
		actual    qualification.Points
		scheduled qualification.Points
		secondary qualification.Points
		corr      qualification.Points
	}

	buckets := make(map[qualification.Month]*bucket, len(events))
	var first, last qualification.Month
	for _, ev := range events {
		m := ev.Month()
		if m.IsZero() {
			continue
		}
		b := buckets[m]
		if b == nil {
			b = &bucket{
				actual:    qualification.NewPointsFromInt(0, qualification.UnitXP),
				scheduled: qualification.NewPointsFromInt(0, qualification.UnitXP),
				secondary: qualification.NewPointsFromInt(0, qualification.UnitUXP),
				corr:      qualification.NewPointsFromInt(0, qualification.UnitXP),
			}
			buckets[m] = b
		}
		if ev.Scheduled {
			b.scheduled = b.scheduled.Add(ev.Points)
			continue
		}
		b.actual = b.actual.Add(ev.Points)
		b.secondary = b.secondary.Add(ev.SecondaryPoints)
		if ev.Kind == KindCorrection {
			b.corr = b.corr.Add(ev.Points)
		}
	}

	for m := range buckets {
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if last.IsZero() || m.After(last) {
			last = m
		}
	}

	if !from.IsZero() && (first.IsZero() || from.Before(first)) {
		first = from
	}
	if !through.IsZero() && (last.IsZero() || through.After(last)) {
		last = through
	}
	if first.IsZero() {
		return nil
	}
	if last.Before(first) {
		last = first
	}

	entries := make([]qualification.LedgerEntry, 0, qualification.MonthsBetween(first, last)+1)
	for m := first; !m.After(last); m = m.Next() {
		entry := qualification.LedgerEntry{
			Month:           m,
			ActualPoints:    qualification.NewPointsFromInt(0, qualification.UnitXP),
			ScheduledPoints: qualification.NewPointsFromInt(0, qualification.UnitXP),
			SecondaryPoints: qualification.NewPointsFromInt(0, qualification.UnitUXP),
			Correction:      qualification.NewPointsFromInt(0, qualification.UnitXP),
		}
		if b := buckets[m]; b != nil {
			entry.ActualPoints = b.actual
			entry.ScheduledPoints = b.scheduled
			entry.SecondaryPoints = b.secondary
			entry.Correction = b.corr
		}
		entries = append(entries, entry)
	}
	return entries
}
