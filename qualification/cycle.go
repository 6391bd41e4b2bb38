/*
cycle.go - computed cycle records

PURPOSE:
  Cycle and SecondaryCycle are the engine's outputs: immutable snapshots of
  one qualification span. Consumers (query helpers, DTOs, the CLI) read
  them; nothing mutates them after the builder emits them.

KEY CONCEPTS:
  Exclusive ends: EndDate is the first instant after the cycle, so
  consecutive cycles satisfy prev.EndDate == next.StartDate exactly.

  Entry views: Entries is a read-only sub-slice of the engine's normalized
  entry sequence, not an owning copy. Treat it as immutable.

SEE ALSO:
  - builder.go: emits Cycles
  - secondary.go: emits SecondaryCycles
  - query.go: selection helpers over the sequences
*/
package qualification

import "time"

// Cycle is one primary qualification span.
type Cycle struct {
	StartDate time.Time
	EndDate   time.Time // exclusive

	// StartingTier is the tier held throughout the cycle.
	StartingTier Tier

	// RolloverIn is the balance carried in from the previous cycle.
	RolloverIn Points

	// Entries are the ledger months falling inside the span. Months with
	// no entry contribute zero and are not materialized.
	Entries []LedgerEntry

	// ActualPoints is RolloverIn plus every actual point earned in the
	// span. ProjectedPoints additionally includes scheduled points.
	ActualPoints    Points
	ProjectedPoints Points

	// ActualTier and ProjectedTier are the evaluator's cascade over the
	// respective total, starting from StartingTier.
	ActualTier    Tier
	ProjectedTier Tier

	// ClosedEarly marks a cycle ended by a mid-cycle promotion rather
	// than the scheduled boundary.
	ClosedEarly bool

	// RolloverOut is the committed carry into the next cycle. Zero and
	// uncommitted on the final, still-open cycle.
	RolloverOut Points
}

func (c Cycle) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(c.StartDate) && u.Before(c.EndDate)
}

func (c Cycle) Overlaps(from, to time.Time) bool {
	return c.StartDate.Before(to.UTC()) && c.EndDate.After(from.UTC())
}

// Months returns the number of calendar months the cycle spans.
func (c Cycle) Months() int {
	return MonthsBetween(MonthOf(c.StartDate), MonthOf(c.EndDate))
}

// SecondaryCycle is one secondary-counter window. Structurally it mirrors
// Cycle; StartingTier is the standing held through the window, either the
// unlock tier (building toward the top standing) or TierUltimate.
type SecondaryCycle struct {
	StartDate time.Time
	EndDate   time.Time // exclusive

	StartingTier Tier
	RolloverIn   Points

	Entries []LedgerEntry

	// ActualPoints replays the window's secondary earnings over RolloverIn
	// with the tracking limit applied month by month. The data model has no
	// scheduled secondary points, so ProjectedPoints mirrors ActualPoints.
	ActualPoints    Points
	ProjectedPoints Points

	ActualTier    Tier
	ProjectedTier Tier

	// ClosedEarly marks a window ended by crossing the secondary threshold
	// before its scheduled boundary.
	ClosedEarly bool

	RolloverOut Points
}

func (s SecondaryCycle) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(s.StartDate) && u.Before(s.EndDate)
}

func (s SecondaryCycle) Overlaps(from, to time.Time) bool {
	return s.StartDate.Before(to.UTC()) && s.EndDate.After(from.UTC())
}
