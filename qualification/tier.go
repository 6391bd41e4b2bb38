/*
tier.go - tier ladder, thresholds, and the promotion evaluator

PURPOSE:
  Holds the threshold table (Ruleset) and the single piece of logic allowed
  to change a tier: Evaluate. The ladder is an ordered array of (tier,
  threshold) steps; next/previous lookups are array-index moves, never
  string comparisons scattered through the code.

KEY CONCEPTS:
  Step costs: a step's threshold is the XP price paid on entering that tier
  from below, and equally the price of re-earning it at a cycle boundary.
  The counter resets on every promotion, so reaching Gold from Explorer in
  one month pays the Silver step first, then re-checks the remainder
  against the Gold step.

  Cascading: Evaluate loops while the balance covers the next step, so a
  single large month can advance several tiers. Ties promote.

  Secondary ladder: the top standing is earned on a separate counter with
  a single step. It reuses the same evaluator over a two-rung ladder.

USAGE:
  rules := qualification.DefaultRuleset()
  ev := rules.Evaluate(balance, qualification.TierSilver)
  if ev.Promoted {
      // ev.Tier is the new tier, ev.Remainder the balance after paying
      // every crossed step.
  }

SEE ALSO:
  - builder.go: calls Evaluate once per walked month
  - secondary.go: the two-rung secondary ladder walk
*/
package qualification

import "fmt"

// =============================================================================
// TIERS
// =============================================================================

type Tier string

const (
	TierExplorer Tier = "explorer"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierUltimate Tier = "ultimate" // earned on the secondary counter only
)

// tierOrder ranks every known tier for cross-ladder comparisons.
var tierOrder = []Tier{TierExplorer, TierSilver, TierGold, TierPlatinum, TierUltimate}

// CompareTiers orders two tiers: negative when a is below b, zero when
// equal, positive when a is above b. Unknown tiers rank lowest.
func CompareTiers(a, b Tier) int {
	return tierRank(a) - tierRank(b)
}

func tierRank(t Tier) int {
	for i, known := range tierOrder {
		if known == t {
			return i
		}
	}
	return -1
}

// ParseTier maps a string onto a known tier.
func ParseTier(s string) (Tier, bool) {
	for _, known := range tierOrder {
		if string(known) == s {
			return known, true
		}
	}
	return "", false
}

// =============================================================================
// RULESET - The threshold table
// =============================================================================

// TierStep is one rung of a ladder: the tier and the points required to
// enter it from the rung below (or re-earn it at a boundary).
type TierStep struct {
	Tier      Tier
	Threshold Points
}

// Ruleset captures the published qualification rules of the program. The
// ladder is ordered ascending; Ladder[0] is the base tier with threshold 0.
type Ruleset struct {
	Ladder      []TierStep
	CycleMonths int

	// RolloverCap bounds the balance carried into the next cycle after a
	// promotion or requalification.
	RolloverCap Points

	// Secondary counter rules: a single step above the unlock tier.
	SecondaryUnlockTier    Tier
	SecondaryThreshold     Points
	SecondaryCap           Points
	SecondaryTrackingLimit Points // balances saturate here; excess is not tracked
}

// DefaultRuleset returns the current published program numbers.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Ladder: []TierStep{
			{Tier: TierExplorer, Threshold: NewPointsFromInt(0, UnitXP)},
			{Tier: TierSilver, Threshold: NewPointsFromInt(100, UnitXP)},
			{Tier: TierGold, Threshold: NewPointsFromInt(180, UnitXP)},
			{Tier: TierPlatinum, Threshold: NewPointsFromInt(300, UnitXP)},
		},
		CycleMonths:            12,
		RolloverCap:            NewPointsFromInt(300, UnitXP),
		SecondaryUnlockTier:    TierPlatinum,
		SecondaryThreshold:     NewPointsFromInt(900, UnitUXP),
		SecondaryCap:           NewPointsFromInt(900, UnitUXP),
		SecondaryTrackingLimit: NewPointsFromInt(1800, UnitUXP),
	}
}

// Validate checks a ruleset for programmer errors. Data problems in ledger
// or config never reach here; only a malformed custom ruleset does.
func (r Ruleset) Validate() error {
	if len(r.Ladder) == 0 {
		return &RulesetError{Field: "Ladder", Reason: "ladder is empty"}
	}
	if !r.Ladder[0].Threshold.IsZero() {
		return &RulesetError{Field: "Ladder", Reason: "base tier threshold must be zero"}
	}
	seen := map[Tier]bool{}
	for i, step := range r.Ladder {
		if seen[step.Tier] {
			return &RulesetError{Field: "Ladder", Reason: fmt.Sprintf("duplicate tier %q", step.Tier)}
		}
		seen[step.Tier] = true
		if i > 0 && !step.Threshold.IsPositive() {
			return &RulesetError{Field: "Ladder", Reason: fmt.Sprintf("step %q needs a positive threshold", step.Tier)}
		}
	}
	if r.CycleMonths < 1 {
		return &RulesetError{Field: "CycleMonths", Reason: "cycle length must be at least one month"}
	}
	if r.RolloverCap.IsNegative() {
		return &RulesetError{Field: "RolloverCap", Reason: "cap cannot be negative"}
	}
	if !seen[r.SecondaryUnlockTier] {
		return &RulesetError{Field: "SecondaryUnlockTier", Reason: fmt.Sprintf("tier %q is not on the ladder", r.SecondaryUnlockTier)}
	}
	if !r.SecondaryThreshold.IsPositive() {
		return &RulesetError{Field: "SecondaryThreshold", Reason: "threshold must be positive"}
	}
	if r.SecondaryCap.IsNegative() {
		return &RulesetError{Field: "SecondaryCap", Reason: "cap cannot be negative"}
	}
	if r.SecondaryTrackingLimit.LessThan(r.SecondaryCap) {
		return &RulesetError{Field: "SecondaryTrackingLimit", Reason: "tracking limit below the cap"}
	}
	return nil
}

// Threshold returns the step cost of a primary-ladder tier. Unknown tiers
// cost zero.
func (r Ruleset) Threshold(t Tier) Points {
	return stepThreshold(r.Ladder, t)
}

// BaseTier returns the lowest rung of the ladder, or the empty tier for a
// zero ruleset.
func (r Ruleset) BaseTier() Tier {
	if len(r.Ladder) == 0 {
		return ""
	}
	return r.Ladder[0].Tier
}

// TopTier returns the highest rung of the primary ladder.
func (r Ruleset) TopTier() Tier {
	if len(r.Ladder) == 0 {
		return ""
	}
	return r.Ladder[len(r.Ladder)-1].Tier
}

// secondaryLadder builds the two-rung ladder the secondary walk runs on.
func (r Ruleset) secondaryLadder() []TierStep {
	return []TierStep{
		{Tier: r.SecondaryUnlockTier, Threshold: r.SecondaryThreshold.Zero()},
		{Tier: TierUltimate, Threshold: r.SecondaryThreshold},
	}
}

// primaryRung maps a configured starting tier onto the primary ladder.
// TierUltimate sits above the ladder and walks as the unlock tier.
func (r Ruleset) primaryRung(t Tier) Tier {
	if t == TierUltimate {
		return r.SecondaryUnlockTier
	}
	if ladderIndex(r.Ladder, t) < 0 {
		return r.BaseTier()
	}
	return t
}

// =============================================================================
// EVALUATOR - The only thing that changes tiers
// =============================================================================

// Evaluation is the outcome of measuring a balance against a ladder.
type Evaluation struct {
	Tier      Tier
	Remainder Points
	Promoted  bool
}

// Evaluate measures a running balance against the primary ladder from the
// given tier. Stateless: all history is already in the balance.
func (r Ruleset) Evaluate(balance Points, current Tier) Evaluation {
	return evaluateLadder(r.Ladder, balance, current)
}

func evaluateLadder(ladder []TierStep, balance Points, current Tier) Evaluation {
	idx := ladderIndex(ladder, current)
	if idx < 0 {
		idx = 0
	}
	out := Evaluation{Tier: ladder[idx].Tier, Remainder: balance}
	for idx+1 < len(ladder) && out.Remainder.GreaterThanOrEqual(ladder[idx+1].Threshold) {
		out.Remainder = out.Remainder.Sub(ladder[idx+1].Threshold)
		idx++
		out.Tier = ladder[idx].Tier
		out.Promoted = true
	}
	return out
}

func ladderIndex(ladder []TierStep, t Tier) int {
	for i, step := range ladder {
		if step.Tier == t {
			return i
		}
	}
	return -1
}

func stepThreshold(ladder []TierStep, t Tier) Points {
	if i := ladderIndex(ladder, t); i >= 0 {
		return ladder[i].Threshold
	}
	return ladder[0].Threshold.Zero()
}

// demote returns the rung one below t, floored at the ladder base.
func demote(ladder []TierStep, t Tier) Tier {
	i := ladderIndex(ladder, t)
	if i <= 0 {
		return ladder[0].Tier
	}
	return ladder[i-1].Tier
}
