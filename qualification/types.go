/*
Package qualification computes airline-style tier qualification cycles from
a member's monthly point ledger.

PURPOSE:
  This package is the pure core of the status engine. Given a sequence of
  monthly ledger entries and a seed configuration, it replays the member's
  history month by month and produces the full sequence of qualification
  cycles: promotions, requalifications, soft landings, rollover balances,
  and the parallel secondary-counter windows for the top tier.

KEY CONCEPTS IN THIS FILE (types.go):
  - Points: a decimal amount tagged with its counter unit (xp or uxp)
  - LedgerEntry: one calendar month of earning history
  - Config: the seed state for a member's cycle walk

DESIGN PRINCIPLES:
  1. Purity: Compute never mutates its inputs, performs no I/O, and reads
     no clocks. Identical inputs produce identical results.
  2. Precision: decimal.Decimal end to end; partner postings and manual
     corrections arrive with fractional values.
  3. Degradation over failure: malformed input months and bad config fields
     produce warnings and defined defaults, never an error.

USAGE:
  engine, err := qualification.NewEngine(qualification.DefaultRuleset())
  if err != nil { ... }
  result := engine.Compute(entries, qualification.Config{
      CycleStart:   qualification.NewMonth(2025, time.April),
      StartingTier: qualification.TierSilver,
  })

SEE ALSO:
  - tier.go: the threshold ladder and the evaluator
  - builder.go: the month-by-month cycle walk
  - engine.go: input normalization and orchestration
*/
package qualification

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// POINTS - Quantity with counter unit
// =============================================================================

type Points struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitXP  Unit = "xp"  // primary qualification counter
	UnitUXP Unit = "uxp" // secondary (top-tier) counter
)

func NewPoints(value float64, unit Unit) Points {
	return Points{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewPointsFromInt(value int, unit Unit) Points {
	return Points{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (p Points) Zero() Points                       { return Points{Value: decimal.Zero, Unit: p.Unit} }
func (p Points) Add(b Points) Points                { return Points{Value: p.Value.Add(b.Value), Unit: p.Unit} }
func (p Points) Sub(b Points) Points                { return Points{Value: p.Value.Sub(b.Value), Unit: p.Unit} }
func (p Points) Neg() Points                        { return Points{Value: p.Value.Neg(), Unit: p.Unit} }
func (p Points) IsNegative() bool                   { return p.Value.IsNegative() }
func (p Points) IsZero() bool                       { return p.Value.IsZero() }
func (p Points) IsPositive() bool                   { return p.Value.IsPositive() }
func (p Points) GreaterThan(b Points) bool          { return p.Value.GreaterThan(b.Value) }
func (p Points) GreaterThanOrEqual(b Points) bool   { return p.Value.GreaterThanOrEqual(b.Value) }
func (p Points) LessThan(b Points) bool             { return p.Value.LessThan(b.Value) }
func (p Points) Equal(b Points) bool                { return p.Value.Equal(b.Value) }
func (p Points) Float64() float64                   { return p.Value.InexactFloat64() }
func (p Points) String() string                     { return p.Value.String() + " " + string(p.Unit) }

func (p Points) Min(b Points) Points {
	if b.Value.LessThan(p.Value) {
		return Points{Value: b.Value, Unit: p.Unit}
	}
	return p
}

func (p Points) Max(b Points) Points {
	if b.Value.GreaterThan(p.Value) {
		return Points{Value: b.Value, Unit: p.Unit}
	}
	return p
}

// =============================================================================
// LEDGER ENTRY - One calendar month of earning history
// =============================================================================

// LedgerEntry is the engine's unit of input. Entries are unique per month
// and ordered; months with no activity are simply absent and count as zero
// everywhere. A zero Month marks the entry malformed.
type LedgerEntry struct {
	Month Month

	// ActualPoints were finalized in this month: flown segments, partner
	// postings, and manual corrections.
	ActualPoints Points

	// ScheduledPoints come from booked-but-not-yet-flown events dated in
	// this month. Projection only; they never move a tier.
	ScheduledPoints Points

	// SecondaryPoints are the portion of ActualPoints that also counts
	// toward the secondary counter.
	SecondaryPoints Points

	// Correction is the signed manual adjustment already included in
	// ActualPoints, carried separately for display and audit.
	Correction Points
}

func (e LedgerEntry) IsZero() bool {
	return e.ActualPoints.IsZero() && e.ScheduledPoints.IsZero() &&
		e.SecondaryPoints.IsZero() && e.Correction.IsZero()
}

// =============================================================================
// CONFIG - Seed state for a member's walk
// =============================================================================

// SecondaryMode selects the boundary schedule for secondary-counter windows.
type SecondaryMode string

const (
	SecondaryFollowsPrimary SecondaryMode = "follows_primary" // windows end with primary cycles
	SecondaryCalendarYear   SecondaryMode = "calendar_year"   // windows end every January 1st
)

// Config seeds a member's cycle walk. Zero or invalid fields degrade to
// defined defaults with warnings; see normalizeConfig in engine.go.
type Config struct {
	// CycleStart is the first month of the first qualification cycle.
	// Zero defaults to the first ledger month.
	CycleStart Month

	// StartingTier is the tier held when the walk begins. TierUltimate is
	// accepted and means the primary ladder starts at the unlock tier with
	// the secondary counter already holding the top standing.
	StartingTier Tier

	// StartingXP seeds the first cycle's rollover balance. Status matches
	// arrive uncapped; only negative values are repaired.
	StartingXP Points

	// StartingUXP seeds the first secondary window's rollover balance,
	// clamped to the tracking limit.
	StartingUXP Points

	SecondaryMode SecondaryMode
}
