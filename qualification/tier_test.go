package qualification_test

import (
	"errors"
	"testing"

	"github.com/skyward/status-engine/qualification"
)

// Note: xp and uxp helpers are defined in builder_test.go.

// =============================================================================
// EVALUATOR
// =============================================================================

func TestEvaluate_BelowNextThreshold_NoPromotion(t *testing.T) {
	rules := qualification.DefaultRuleset()

	ev := rules.Evaluate(xp(99), qualification.TierExplorer)

	if ev.Promoted {
		t.Error("99 should not cross the silver step of 100")
	}
	if ev.Tier != qualification.TierExplorer {
		t.Errorf("expected explorer, got %s", ev.Tier)
	}
	if !ev.Remainder.Equal(xp(99)) {
		t.Errorf("remainder should be untouched, got %s", ev.Remainder)
	}
}

func TestEvaluate_ExactThreshold_TiePromotes(t *testing.T) {
	rules := qualification.DefaultRuleset()

	ev := rules.Evaluate(xp(100), qualification.TierExplorer)

	if !ev.Promoted {
		t.Error("a tie must promote")
	}
	if ev.Tier != qualification.TierSilver {
		t.Errorf("expected silver, got %s", ev.Tier)
	}
	if !ev.Remainder.IsZero() {
		t.Errorf("expected zero remainder, got %s", ev.Remainder)
	}
}

func TestEvaluate_LargeGain_CascadesThroughTiers(t *testing.T) {
	// 800 from explorer: 100 to silver, 180 to gold, 300 to platinum,
	// leaving 220.
	rules := qualification.DefaultRuleset()

	ev := rules.Evaluate(xp(800), qualification.TierExplorer)

	if ev.Tier != qualification.TierPlatinum {
		t.Errorf("expected platinum, got %s", ev.Tier)
	}
	if !ev.Remainder.Equal(xp(220)) {
		t.Errorf("expected remainder 220, got %s", ev.Remainder)
	}
	if !ev.Promoted {
		t.Error("cascade should report a promotion")
	}
}

func TestEvaluate_TopTier_NeverPromotes(t *testing.T) {
	rules := qualification.DefaultRuleset()

	ev := rules.Evaluate(xp(5000), qualification.TierPlatinum)

	if ev.Promoted {
		t.Error("there is no rung above the primary top")
	}
	if !ev.Remainder.Equal(xp(5000)) {
		t.Errorf("balance should be untouched at the top, got %s", ev.Remainder)
	}
}

func TestEvaluate_UnknownTier_TreatedAsBase(t *testing.T) {
	rules := qualification.DefaultRuleset()

	ev := rules.Evaluate(xp(150), qualification.Tier("bronze"))

	if ev.Tier != qualification.TierSilver {
		t.Errorf("unknown tier should climb from the base, got %s", ev.Tier)
	}
	if !ev.Remainder.Equal(xp(50)) {
		t.Errorf("expected remainder 50, got %s", ev.Remainder)
	}
}

func TestEvaluate_Stateless_RepeatedCallsAgree(t *testing.T) {
	rules := qualification.DefaultRuleset()

	a := rules.Evaluate(xp(280), qualification.TierExplorer)
	b := rules.Evaluate(xp(280), qualification.TierExplorer)

	if a != b {
		t.Errorf("evaluations diverged: %+v vs %+v", a, b)
	}
}

// =============================================================================
// TIER ORDERING
// =============================================================================

func TestCompareTiers_LadderOrder(t *testing.T) {
	order := []qualification.Tier{
		qualification.TierExplorer,
		qualification.TierSilver,
		qualification.TierGold,
		qualification.TierPlatinum,
		qualification.TierUltimate,
	}
	for i := 0; i+1 < len(order); i++ {
		if qualification.CompareTiers(order[i], order[i+1]) >= 0 {
			t.Errorf("%s should rank below %s", order[i], order[i+1])
		}
	}
	if qualification.CompareTiers(qualification.TierGold, qualification.TierGold) != 0 {
		t.Error("a tier should compare equal to itself")
	}
	if qualification.CompareTiers(qualification.Tier("bronze"), qualification.TierExplorer) >= 0 {
		t.Error("unknown tiers rank below the base")
	}
}

func TestParseTier_RoundTrip(t *testing.T) {
	tier, ok := qualification.ParseTier("gold")
	if !ok || tier != qualification.TierGold {
		t.Errorf("expected gold, got %s (ok=%v)", tier, ok)
	}
	if _, ok := qualification.ParseTier("bronze"); ok {
		t.Error("bronze is not a tier")
	}
}

// =============================================================================
// RULESET VALIDATION
// =============================================================================

func TestDefaultRuleset_Validates(t *testing.T) {
	rules := qualification.DefaultRuleset()

	if err := rules.Validate(); err != nil {
		t.Fatalf("default ruleset should validate: %v", err)
	}
	if !rules.Threshold(qualification.TierSilver).Equal(xp(100)) {
		t.Errorf("silver step should be 100, got %s", rules.Threshold(qualification.TierSilver))
	}
	if !rules.Threshold(qualification.TierGold).Equal(xp(180)) {
		t.Errorf("gold step should be 180, got %s", rules.Threshold(qualification.TierGold))
	}
	if !rules.Threshold(qualification.TierPlatinum).Equal(xp(300)) {
		t.Errorf("platinum step should be 300, got %s", rules.Threshold(qualification.TierPlatinum))
	}
	if rules.BaseTier() != qualification.TierExplorer {
		t.Errorf("expected explorer base, got %s", rules.BaseTier())
	}
	if rules.TopTier() != qualification.TierPlatinum {
		t.Errorf("expected platinum top, got %s", rules.TopTier())
	}
}

func TestRulesetValidate_EmptyLadder_Rejected(t *testing.T) {
	rules := qualification.DefaultRuleset()
	rules.Ladder = nil

	err := rules.Validate()

	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, qualification.ErrInvalidRuleset) {
		t.Errorf("expected ErrInvalidRuleset, got %v", err)
	}
	if !qualification.IsInvalidRuleset(err) {
		t.Error("predicate should recognize the error")
	}
}

func TestRulesetValidate_NonZeroBase_Rejected(t *testing.T) {
	rules := qualification.DefaultRuleset()
	rules.Ladder[0].Threshold = xp(10)

	if rules.Validate() == nil {
		t.Error("a non-zero base threshold should be rejected")
	}
}

func TestRulesetValidate_DuplicateTier_Rejected(t *testing.T) {
	rules := qualification.DefaultRuleset()
	rules.Ladder[2].Tier = qualification.TierSilver

	if rules.Validate() == nil {
		t.Error("duplicate tiers should be rejected")
	}
}

func TestRulesetValidate_UnlockTierOffLadder_Rejected(t *testing.T) {
	rules := qualification.DefaultRuleset()
	rules.SecondaryUnlockTier = qualification.Tier("diamond")

	if rules.Validate() == nil {
		t.Error("an unlock tier missing from the ladder should be rejected")
	}
}

func TestRulesetValidate_TrackingLimitBelowCap_Rejected(t *testing.T) {
	rules := qualification.DefaultRuleset()
	rules.SecondaryTrackingLimit = uxp(500)

	if rules.Validate() == nil {
		t.Error("a tracking limit below the cap should be rejected")
	}
}

func TestNewEngine_InvalidRuleset_Errors(t *testing.T) {
	rules := qualification.DefaultRuleset()
	rules.CycleMonths = 0

	_, err := qualification.NewEngine(rules)

	if !qualification.IsInvalidRuleset(err) {
		t.Errorf("expected an invalid ruleset error, got %v", err)
	}
}
