/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Members are enrolled with their profile documents
	- Events land in the ledger
	- The computed history shows the journey the scenario describes

These tests double as end-to-end checks of the compute path over a real
sqlite store.
*/
package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skyward/status-engine/ledger"
	"github.com/skyward/status-engine/qualification"
	"github.com/skyward/status-engine/store/sqlite"
)

func setupTestHandler(t *testing.T) *Handler {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine, err := qualification.NewEngine(qualification.DefaultRuleset())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	return NewHandler(store, qualification.NewCachedEngine(engine, 0))
}

func computeNow(t *testing.T, handler *Handler, memberID string) qualification.Result {
	t.Helper()
	ctx := context.Background()

	m, err := handler.Store.GetMember(ctx, memberID)
	if err != nil {
		t.Fatalf("Failed to get member %s: %v", memberID, err)
	}
	if m == nil {
		t.Fatalf("Member %s not found", memberID)
	}

	res, err := handler.computeResult(ctx, m, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to compute result for %s: %v", memberID, err)
	}
	return res
}

func TestScenario_FreshExplorer(t *testing.T) {
	// GIVEN: Fresh explorer scenario
	// WHEN: Loading the scenario
	// THEN: One member, three events, an open first cycle projecting Silver

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadFreshExplorerScenario(ctx); err != nil {
		t.Fatalf("Failed to load fresh-explorer scenario: %v", err)
	}

	members, err := handler.Store.ListMembers(ctx)
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("Expected 1 member, got %d", len(members))
	}
	if members[0].ID != "sky-001" {
		t.Errorf("Expected member ID 'sky-001', got '%s'", members[0].ID)
	}

	events, err := handler.Ledger.Events(ctx, "sky-001")
	if err != nil {
		t.Fatalf("Failed to load events: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("Expected 3 events, got %d", len(events))
	}

	res := computeNow(t, handler, "sky-001")
	now := time.Now().UTC()

	if got := res.EffectiveTier(now); got != qualification.TierExplorer {
		t.Errorf("Expected effective tier explorer, got %s", got)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %d: %v", len(res.Warnings), res.Warnings)
	}

	active, err := qualification.FindActiveCycle(res.Cycles, now)
	if err != nil {
		t.Fatalf("Failed to find active cycle: %v", err)
	}
	if got := active.ActualPoints.Float64(); got != 75 {
		t.Errorf("Expected 75 actual points, got %.1f", got)
	}
	if got := active.ProjectedPoints.Float64(); got != 195 {
		t.Errorf("Expected 195 projected points (booked flight counted), got %.1f", got)
	}
	if active.ActualTier != qualification.TierExplorer {
		t.Errorf("Expected actual tier explorer, got %s", active.ActualTier)
	}
	if active.ProjectedTier != qualification.TierSilver {
		t.Errorf("Expected projected tier silver, got %s", active.ProjectedTier)
	}

	prog, err := res.Progress(now)
	if err != nil {
		t.Fatalf("Failed to compute progress: %v", err)
	}
	if prog.Next != qualification.TierSilver {
		t.Errorf("Expected next tier silver, got %s", prog.Next)
	}
	if got := prog.Needed.Float64(); got != 25 {
		t.Errorf("Expected 25 points needed for silver, got %.1f", got)
	}
}

func TestScenario_SilverClimber(t *testing.T) {
	// GIVEN: Silver climber scenario
	// WHEN: Loading the scenario
	// THEN: First cycle closed early on promotion, remainder carried, open Silver cycle

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadSilverClimberScenario(ctx); err != nil {
		t.Fatalf("Failed to load silver-climber scenario: %v", err)
	}

	res := computeNow(t, handler, "sky-002")
	now := time.Now().UTC()

	if len(res.Cycles) != 2 {
		t.Fatalf("Expected 2 cycles (promotion close + open), got %d", len(res.Cycles))
	}

	first := res.Cycles[0]
	if !first.ClosedEarly {
		t.Error("First cycle should be closed early on promotion")
	}
	if first.StartingTier != qualification.TierExplorer {
		t.Errorf("Expected first cycle starting tier explorer, got %s", first.StartingTier)
	}
	if first.ActualTier != qualification.TierSilver {
		t.Errorf("Expected first cycle actual tier silver, got %s", first.ActualTier)
	}
	if got := first.ActualPoints.Float64(); got != 120 {
		t.Errorf("Expected 120 points in first cycle, got %.1f", got)
	}
	if got := first.RolloverOut.Float64(); got != 20 {
		t.Errorf("Expected 20 points rolled over, got %.1f", got)
	}

	active, err := qualification.FindActiveCycle(res.Cycles, now)
	if err != nil {
		t.Fatalf("Failed to find active cycle: %v", err)
	}
	if active.StartingTier != qualification.TierSilver {
		t.Errorf("Expected active cycle at silver, got %s", active.StartingTier)
	}
	if got := active.RolloverIn.Float64(); got != 20 {
		t.Errorf("Expected 20 points carried in, got %.1f", got)
	}
	// 20 carry + 60 + 30 - 10 correction + 25
	if got := active.ActualPoints.Float64(); got != 125 {
		t.Errorf("Expected 125 actual points in active cycle, got %.1f", got)
	}

	if got := res.EffectiveTier(now); got != qualification.TierSilver {
		t.Errorf("Expected effective tier silver, got %s", got)
	}

	prog, err := res.Progress(now)
	if err != nil {
		t.Fatalf("Failed to compute progress: %v", err)
	}
	if prog.Next != qualification.TierGold {
		t.Errorf("Expected next tier gold, got %s", prog.Next)
	}
	if got := prog.Needed.Float64(); got != 55 {
		t.Errorf("Expected 55 points needed for gold, got %.1f", got)
	}
}

func TestScenario_PlatinumRequalifier(t *testing.T) {
	// GIVEN: Platinum requalifier scenario
	// WHEN: Loading the scenario
	// THEN: Boundary requalification keeps the tier and carries the excess

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadPlatinumRequalifierScenario(ctx); err != nil {
		t.Fatalf("Failed to load platinum-requalifier scenario: %v", err)
	}

	res := computeNow(t, handler, "sky-003")
	now := time.Now().UTC()

	if len(res.Warnings) != 0 {
		t.Errorf("Expected no warnings (starting balances are valid), got %v", res.Warnings)
	}
	if len(res.Cycles) != 2 {
		t.Fatalf("Expected 2 cycles, got %d", len(res.Cycles))
	}

	first := res.Cycles[0]
	if first.ClosedEarly {
		t.Error("Requalification settles at the boundary, not early")
	}
	// 320 status-match seed + 85 + 65 + 90 flown
	if got := first.ActualPoints.Float64(); got != 560 {
		t.Errorf("Expected 560 points at the boundary, got %.1f", got)
	}
	if got := first.RolloverOut.Float64(); got != 260 {
		t.Errorf("Expected 260 points rolled over (560 - 300 step), got %.1f", got)
	}

	active, err := qualification.FindActiveCycle(res.Cycles, now)
	if err != nil {
		t.Fatalf("Failed to find active cycle: %v", err)
	}
	if active.StartingTier != qualification.TierPlatinum {
		t.Errorf("Expected requalified platinum cycle, got %s", active.StartingTier)
	}
	if got := active.RolloverIn.Float64(); got != 260 {
		t.Errorf("Expected 260 points carried in, got %.1f", got)
	}
	if got := active.ActualPoints.Float64(); got != 300 {
		t.Errorf("Expected 300 actual points (260 carry + 40), got %.1f", got)
	}

	// Secondary shares tracked from day one: platinum unlocks the counter.
	if len(res.SecondaryCycles) != 2 {
		t.Fatalf("Expected 2 secondary windows, got %d", len(res.SecondaryCycles))
	}
	if got := res.SecondaryCycles[0].ActualPoints.Float64(); got != 115 {
		t.Errorf("Expected 115 secondary points in first window, got %.1f", got)
	}
	if got := res.SecondaryCycles[0].RolloverOut.Float64(); got != 115 {
		t.Errorf("Expected full 115 carried across the window boundary, got %.1f", got)
	}

	if got := res.EffectiveTier(now); got != qualification.TierPlatinum {
		t.Errorf("Expected effective tier platinum, got %s", got)
	}
}

func TestScenario_UltimateChaser(t *testing.T) {
	// GIVEN: Ultimate chaser scenario
	// WHEN: Loading the scenario
	// THEN: Secondary counter crosses 900, an Ultimate window is open today

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadUltimateChaserScenario(ctx); err != nil {
		t.Fatalf("Failed to load ultimate-chaser scenario: %v", err)
	}

	res := computeNow(t, handler, "sky-004")
	now := time.Now().UTC()

	if got := res.EffectiveTier(now); got != qualification.TierUltimate {
		t.Errorf("Expected effective tier ultimate, got %s", got)
	}

	if len(res.SecondaryCycles) != 2 {
		t.Fatalf("Expected 2 secondary windows, got %d", len(res.SecondaryCycles))
	}

	crossed := res.SecondaryCycles[0]
	if !crossed.ClosedEarly {
		t.Error("Crossing the threshold should close the window early")
	}
	if crossed.ActualTier != qualification.TierUltimate {
		t.Errorf("Expected first window to reach ultimate, got %s", crossed.ActualTier)
	}
	// 300 seeded + 180 + 200 + 140 + 160
	if got := crossed.ActualPoints.Float64(); got != 980 {
		t.Errorf("Expected 980 secondary points, got %.1f", got)
	}
	if got := crossed.RolloverOut.Float64(); got != 80 {
		t.Errorf("Expected 80 points carried past the threshold, got %.1f", got)
	}

	open := res.SecondaryCycles[1]
	if open.StartingTier != qualification.TierUltimate {
		t.Errorf("Expected open window at ultimate, got %s", open.StartingTier)
	}
	if !open.Contains(now) {
		t.Error("Ultimate window should cover today")
	}

	// Primary side: 750 flown requalifies platinum with the carry capped.
	if len(res.Cycles) != 2 {
		t.Fatalf("Expected 2 primary cycles, got %d", len(res.Cycles))
	}
	if got := res.Cycles[0].ActualPoints.Float64(); got != 750 {
		t.Errorf("Expected 750 primary points, got %.1f", got)
	}
	if got := res.Cycles[0].RolloverOut.Float64(); got != 300 {
		t.Errorf("Expected rollover capped at 300, got %.1f", got)
	}
}

func TestScenario_ReloadNeedsReset(t *testing.T) {
	// GIVEN: A loaded scenario
	// WHEN: Loading it again without resetting
	// THEN: The idempotency keys collide; a reset frees them

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadSilverClimberScenario(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	err := handler.loadSilverClimberScenario(ctx)
	if !errors.Is(err, ledger.ErrDuplicateIdempotencyKey) {
		t.Errorf("Expected duplicate key error on reload, got %v", err)
	}

	if err := handler.Store.Reset(ctx); err != nil {
		t.Fatalf("Failed to reset store: %v", err)
	}
	if err := handler.loadSilverClimberScenario(ctx); err != nil {
		t.Errorf("Expected clean load after reset, got %v", err)
	}
}
