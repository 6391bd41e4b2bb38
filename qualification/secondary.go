/*
secondary.go - the secondary-counter walk

PURPOSE:
  The top standing is earned on its own counter, measured in windows that
  run alongside the primary cycles. This file replays that counter with the
  same machine shape as the primary walk, over the two-rung secondary
  ladder: the unlock tier at zero and the top standing one step above.

RULES THAT DIFFER FROM THE PRIMARY WALK:
  - Engagement: windows only materialize while the member holds the unlock
    tier (or already holds the top standing). Secondary points earned
    before engagement are not tracked.
  - Tracking limit: the balance saturates at twice the cap. Earnings above
    the limit are not tracked and not an error.
  - Boundaries come from a schedule, not a fixed month count: either the
    primary cycles' ends or calendar years, per config.
  - Landing targets a fixed floor: failing the top standing's
    requalification puts the member at the unlock tier for one full
    window, wherever the primary ladder currently sits. Ordinary
    eligibility rules resume at that window's end.
  - Dormancy: a member below the unlock tier at a window end leaves the
    system; the balance is discarded. Regaining the tier starts a fresh
    window at zero.

SEE ALSO:
  - builder.go: the primary walk whose boundaries windows can follow
  - tier.go: the shared evaluator and the two-rung ladder
*/
package qualification

import "time"

// buildSecondary replays the secondary counter over the same months the
// primary walk processed. cfg carries the raw StartingTier: TierUltimate
// seeds the walk already holding the top standing.
func buildSecondary(rules Ruleset, entries []LedgerEntry, cfg Config, primary []Cycle) []SecondaryCycle {
	if len(primary) == 0 {
		return nil
	}
	ladder := rules.secondaryLadder()
	base := rules.SecondaryUnlockTier
	zero := NewPointsFromInt(0, UnitUXP)

	walkStart := MonthOf(primary[0].StartDate)
	var walkEnd Month
	if len(entries) > 0 {
		walkEnd = entries[len(entries)-1].Month
	}

	// boundary reports whether a window ends where the month `next` begins.
	boundary := func(next Month) bool {
		if cfg.SecondaryMode == SecondaryCalendarYear {
			return next.Month() == time.January
		}
		for _, c := range primary[:len(primary)-1] {
			if MonthOf(c.EndDate).Equal(next) {
				return true
			}
		}
		return false
	}

	tierAt := func(m Month) Tier {
		for _, c := range primary {
			if c.Contains(m.Start()) {
				return c.StartingTier
			}
		}
		return primary[len(primary)-1].StartingTier
	}
	eligible := func(m Month) bool { return CompareTiers(tierAt(m), base) >= 0 }

	engaged := false
	standing := base
	balance := zero
	rolloverIn := zero
	var windowStart Month
	first, idx := 0, 0
	var out []SecondaryCycle

	if CompareTiers(cfg.StartingTier, base) >= 0 {
		engaged = true
		windowStart = walkStart
		if cfg.StartingTier == TierUltimate {
			standing = TierUltimate
		}
		balance = cfg.StartingUXP
		rolloverIn = balance
	}

	for cursor := walkStart; !walkEnd.IsZero() && !cursor.After(walkEnd); cursor = cursor.Next() {
		if !engaged {
			if !eligible(cursor) {
				if idx < len(entries) && entries[idx].Month.Equal(cursor) {
					idx++
				}
				first = idx
				continue
			}
			engaged = true
			standing = base
			balance = zero
			rolloverIn = zero
			windowStart = cursor
			first = idx
		}

		var entry LedgerEntry
		if idx < len(entries) && entries[idx].Month.Equal(cursor) {
			entry = entries[idx]
			idx++
		}
		balance = balance.Add(entry.SecondaryPoints).Min(rules.SecondaryTrackingLimit)

		if standing != TierUltimate {
			if ev := evaluateLadder(ladder, balance, standing); ev.Promoted {
				carry := clampRollover(ev.Remainder, rules.SecondaryCap)
				out = append(out, makeSecondaryCycle(rules, windowStart, cursor.Next(), standing, rolloverIn, entries[first:idx], true, carry))
				standing = TierUltimate
				balance = carry
				rolloverIn = carry
				windowStart = cursor.Next()
				first = idx
				continue
			}
		}

		if boundary(cursor.Next()) {
			next := cursor.Next()
			switch {
			case standing == TierUltimate && balance.GreaterThanOrEqual(rules.SecondaryThreshold):
				carry := clampRollover(balance.Sub(rules.SecondaryThreshold), rules.SecondaryCap)
				out = append(out, makeSecondaryCycle(rules, windowStart, next, standing, rolloverIn, entries[first:idx], false, carry))
				balance = carry
				rolloverIn = carry
			case standing == TierUltimate:
				// Landing: top standing lost, the member keeps the unlock
				// tier for one full window regardless of the primary ladder.
				out = append(out, makeSecondaryCycle(rules, windowStart, next, standing, rolloverIn, entries[first:idx], false, zero))
				standing = base
				balance = zero
				rolloverIn = zero
			case eligible(next):
				carry := clampRollover(balance, rules.SecondaryCap)
				out = append(out, makeSecondaryCycle(rules, windowStart, next, standing, rolloverIn, entries[first:idx], false, carry))
				balance = carry
				rolloverIn = carry
			default:
				// Dormancy: building toward the top standing ends when the
				// unlock tier is lost.
				out = append(out, makeSecondaryCycle(rules, windowStart, next, standing, rolloverIn, entries[first:idx], false, zero))
				engaged = false
				balance = zero
				rolloverIn = zero
			}
			windowStart = next
			first = idx
		}
	}

	if engaged {
		end := scheduledWindowEnd(cfg.SecondaryMode, windowStart, primary)
		out = append(out, makeSecondaryCycle(rules, windowStart, end, standing, rolloverIn, entries[first:], false, zero))
	}
	return out
}

// scheduledWindowEnd is the open window's planned boundary.
func scheduledWindowEnd(mode SecondaryMode, windowStart Month, primary []Cycle) Month {
	if mode == SecondaryCalendarYear {
		return NewMonth(windowStart.Year()+1, time.January)
	}
	return MonthOf(primary[len(primary)-1].EndDate)
}

// clampRollover bounds a carry balance to [0, limit].
func clampRollover(balance, limit Points) Points {
	return limit.Min(balance).Max(balance.Zero())
}

func makeSecondaryCycle(rules Ruleset, start, end Month, standing Tier, rolloverIn Points, view []LedgerEntry, closedEarly bool, rolloverOut Points) SecondaryCycle {
	ladder := rules.secondaryLadder()
	actual := rolloverIn
	for _, e := range view {
		actual = actual.Add(e.SecondaryPoints).Min(rules.SecondaryTrackingLimit)
	}
	ev := evaluateLadder(ladder, actual, standing)
	return SecondaryCycle{
		StartDate:       start.Start(),
		EndDate:         end.Start(),
		StartingTier:    standing,
		RolloverIn:      rolloverIn,
		Entries:         view,
		ActualPoints:    actual,
		ProjectedPoints: actual,
		ActualTier:      ev.Tier,
		ProjectedTier:   ev.Tier,
		ClosedEarly:     closedEarly,
		RolloverOut:     rolloverOut,
	}
}
