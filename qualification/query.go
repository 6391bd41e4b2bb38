/*
query.go - lookups over built cycles

PURPOSE:
  Once the walks have produced their cycle lists, callers mostly ask
  point-in-time questions: which cycle covers this date, what standing
  does the member hold, how far to the next tier. These helpers answer
  them without recomputing anything.

KEY CONCEPTS:
  - Active cycle: the cycle containing a date. The lookup is total for a
    non-empty list: dates before the first cycle resolve to the earliest
    cycle ending on or after them, dates beyond all cycles resolve to the
    last.
  - Effective standing: the higher of the primary tier held during the
    active cycle and the secondary standing held during a window actually
    covering the date.

SEE ALSO:
  - cycle.go: the records these functions walk
  - engine.go: Result, which carries convenience methods over both lists
*/
package qualification

import "time"

// FindActiveCycle resolves asOf to a cycle. Returns ErrNoCycles only for
// an empty list.
func FindActiveCycle(cycles []Cycle, asOf time.Time) (Cycle, error) {
	if len(cycles) == 0 {
		return Cycle{}, ErrNoCycles
	}
	for _, c := range cycles {
		if c.Contains(asOf) {
			return c, nil
		}
	}
	at := asOf.UTC()
	for _, c := range cycles {
		if !c.EndDate.Before(at) {
			return c, nil
		}
	}
	return cycles[len(cycles)-1], nil
}

// FindActiveSecondaryCycle resolves asOf to a secondary window with the
// same totality rules as FindActiveCycle.
func FindActiveSecondaryCycle(cycles []SecondaryCycle, asOf time.Time) (SecondaryCycle, error) {
	if len(cycles) == 0 {
		return SecondaryCycle{}, ErrNoCycles
	}
	for _, c := range cycles {
		if c.Contains(asOf) {
			return c, nil
		}
	}
	at := asOf.UTC()
	for _, c := range cycles {
		if !c.EndDate.Before(at) {
			return c, nil
		}
	}
	return cycles[len(cycles)-1], nil
}

// CyclesInRange returns every cycle overlapping [from, to).
func CyclesInRange(cycles []Cycle, from, to time.Time) []Cycle {
	var out []Cycle
	for _, c := range cycles {
		if c.Overlaps(from, to) {
			out = append(out, c)
		}
	}
	return out
}

// SecondaryCyclesInRange returns every window overlapping [from, to).
func SecondaryCyclesInRange(cycles []SecondaryCycle, from, to time.Time) []SecondaryCycle {
	var out []SecondaryCycle
	for _, c := range cycles {
		if c.Overlaps(from, to) {
			out = append(out, c)
		}
	}
	return out
}

// TierProgress describes how far the active cycle's balance has climbed
// toward the next primary tier.
type TierProgress struct {
	Current Tier   // tier reached on the active cycle's balance
	Next    Tier   // tier above Current; equals Current at the top
	Balance Points // progress already banked toward Next
	Needed  Points // points still missing; zero at the top
	AtTop   bool   // Current is the ladder's top rung
}

// EffectiveTier is the standing a member holds at asOf: the starting tier
// of the active primary cycle, lifted by the secondary standing when a
// window covers the date.
func (r Result) EffectiveTier(asOf time.Time) Tier {
	c, err := FindActiveCycle(r.Cycles, asOf)
	if err != nil {
		return r.rules.BaseTier()
	}
	tier := c.StartingTier
	if s, err := FindActiveSecondaryCycle(r.SecondaryCycles, asOf); err == nil && s.Contains(asOf) {
		if CompareTiers(s.StartingTier, tier) > 0 {
			tier = s.StartingTier
		}
	}
	return tier
}

// Progress reports the climb toward the next tier on the cycle active at
// asOf.
func (r Result) Progress(asOf time.Time) (TierProgress, error) {
	c, err := FindActiveCycle(r.Cycles, asOf)
	if err != nil {
		return TierProgress{}, err
	}
	ev := r.rules.Evaluate(c.ActualPoints, c.StartingTier)
	p := TierProgress{Current: ev.Tier, Next: ev.Tier, Balance: ev.Remainder, Needed: ev.Remainder.Zero()}
	idx := ladderIndex(r.rules.Ladder, ev.Tier)
	if idx+1 < len(r.rules.Ladder) {
		p.Next = r.rules.Ladder[idx+1].Tier
		p.Needed = r.rules.Ladder[idx+1].Threshold.Sub(ev.Remainder)
	} else {
		p.AtTop = true
	}
	return p, nil
}
