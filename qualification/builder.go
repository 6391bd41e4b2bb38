/*
builder.go - the primary cycle walk

PURPOSE:
  Replays a member's ledger month by month and emits the full sequence of
  primary qualification cycles. This file owns every date decision in the
  primary dimension: when a cycle closes, where the next one starts, and
  what balance crosses the boundary.

THE WALK:
  Each month: take the month's entry (zero if absent), add its actual
  points to the carry balance, run the evaluator.

  - Promotion: the cycle closes at the end of that month with ClosedEarly
    set, rollover = min(cap, evaluator remainder). The next cycle opens on
    the first day of the following month at the new tier.
  - Scheduled boundary with no promotion: requalification. Carry covering
    the current tier's step keeps the tier, rollover = min(cap, carry -
    step). Anything less is a soft landing: one rung down (floored at the
    base), all carry discarded.
  - A promotion landing in the boundary month is still a promotion and
    takes precedence over settlement.

  The walk stops after the last ledger month. The final cycle is emitted
  open: scheduled end date, zero uncommitted rollover.

SEE ALSO:
  - tier.go: the evaluator the walk consults
  - secondary.go: the parallel secondary-counter walk
  - engine.go: normalization before the walk
*/
package qualification

// buildCycles walks the normalized, sorted entries from cfg.CycleStart.
// cfg must be normalized: non-zero CycleStart, a primary-rung StartingTier,
// StartingXP repaired to non-negative.
func buildCycles(rules Ruleset, entries []LedgerEntry, cfg Config) []Cycle {
	var cycles []Cycle

	tier := cfg.StartingTier
	carry := cfg.StartingXP
	rolloverIn := carry
	cycleStart := cfg.CycleStart
	first := 0 // index of the open cycle's first entry
	idx := 0

	var last Month
	if len(entries) > 0 {
		last = entries[len(entries)-1].Month
	}

	for cursor := cycleStart; !last.IsZero() && !cursor.After(last); cursor = cursor.Next() {
		var entry LedgerEntry
		if idx < len(entries) && entries[idx].Month.Equal(cursor) {
			entry = entries[idx]
			idx++
		}
		carry = carry.Add(entry.ActualPoints)

		if ev := rules.Evaluate(carry, tier); ev.Promoted {
			out := rules.RolloverCap.Min(ev.Remainder)
			cycles = append(cycles, makeCycle(rules, cycleStart, cursor.Next(), tier, rolloverIn, entries[first:idx], true, out))
			tier = ev.Tier
			carry = out
			rolloverIn = out
			cycleStart = cursor.Next()
			first = idx
			continue
		}

		if MonthsBetween(cycleStart, cursor) == rules.CycleMonths-1 {
			step := rules.Threshold(tier)
			if carry.GreaterThanOrEqual(step) {
				out := rules.RolloverCap.Min(carry.Sub(step))
				cycles = append(cycles, makeCycle(rules, cycleStart, cursor.Next(), tier, rolloverIn, entries[first:idx], false, out))
				carry = out
			} else {
				cycles = append(cycles, makeCycle(rules, cycleStart, cursor.Next(), tier, rolloverIn, entries[first:idx], false, carry.Zero()))
				tier = demote(rules.Ladder, tier)
				carry = carry.Zero()
			}
			rolloverIn = carry
			cycleStart = cursor.Next()
			first = idx
		}
	}

	// The running cycle stays open: scheduled end, nothing committed.
	open := makeCycle(rules, cycleStart, cycleStart.AddMonths(rules.CycleMonths), tier, rolloverIn, entries[first:], false, rolloverIn.Zero())
	return append(cycles, open)
}

func makeCycle(rules Ruleset, start, end Month, tier Tier, rolloverIn Points, view []LedgerEntry, closedEarly bool, rolloverOut Points) Cycle {
	actual := rolloverIn
	projected := rolloverIn
	for _, e := range view {
		actual = actual.Add(e.ActualPoints)
		projected = projected.Add(e.ActualPoints).Add(e.ScheduledPoints)
	}
	return Cycle{
		StartDate:       start.Start(),
		EndDate:         end.Start(),
		StartingTier:    tier,
		RolloverIn:      rolloverIn,
		Entries:         view,
		ActualPoints:    actual,
		ProjectedPoints: projected,
		ActualTier:      rules.Evaluate(actual, tier).Tier,
		ProjectedTier:   rules.Evaluate(projected, tier).Tier,
		ClosedEarly:     closedEarly,
		RolloverOut:     rolloverOut,
	}
}
