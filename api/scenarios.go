/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	member journeys for testing and demos. Each scenario enrolls members
	and appends the earning events that demonstrate specific engine
	behavior.

AVAILABLE SCENARIOS:

	fresh-explorer:        New member, open first cycle, one booked flight
	silver-climber:        Mid-cycle promotion with remainder carry
	platinum-requalifier:  Boundary requalification with capped rollover
	ultimate-chaser:       Secondary counter crossing the top threshold

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Enroll members from profile documents
 3. Append earning events through the ledger (validated, idempotent)

Dates are relative to the current month so the journeys always look
live: open cycles are genuinely open, boundaries have genuinely passed.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "silver-climber"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: member and event handlers
  - profile/profile.go: the enrollment document
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/skyward/status-engine/ledger"
	"github.com/skyward/status-engine/profile"
	"github.com/skyward/status-engine/qualification"
	"github.com/skyward/status-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-explorer",
		Name:        "Fresh Explorer",
		Description: "New member with a few flights and one booked segment, first cycle open",
	},
	{
		ID:          "silver-climber",
		Name:        "Silver Climber",
		Description: "Crosses the first threshold mid-cycle, remainder carries into a Silver cycle",
	},
	{
		ID:          "platinum-requalifier",
		Name:        "Platinum Requalifier",
		Description: "Status-matched Platinum requalifies at the 12-month boundary with capped rollover",
	},
	{
		ID:          "ultimate-chaser",
		Name:        "Ultimate Chaser",
		Description: "Heavy flyer whose secondary counter crosses the top-standing threshold",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// ErrUnknownScenario is returned for scenario ids nothing matches.
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenarios lists the available demo scenarios.
func Scenarios() []ScenarioDTO {
	return scenarios
}

// LoadScenarioByID resets the database and loads the named scenario.
// Shared by the HTTP handler and the CLI.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.Engine.Reset()
	h.currentScenario = ""

	var err error
	switch id {
	case "fresh-explorer":
		err = h.loadFreshExplorerScenario(ctx)
	case "silver-climber":
		err = h.loadSilverClimberScenario(ctx)
	case "platinum-requalifier":
		err = h.loadPlatinumRequalifierScenario(ctx)
	case "ultimate-chaser":
		err = h.loadUltimateChaserScenario(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	if err != nil {
		return err
	}

	h.currentScenario = id
	return nil
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, ErrUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.Engine.Reset()
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// monthsBack returns the given day of the month n months before the
// current one. Negative n reaches into the future (booked flights).
func monthsBack(n, day int) time.Time {
	now := time.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -n, day-1)
}

// monthKeyBack is the YYYY-MM key of the month n months back.
func monthKeyBack(n int) string {
	return qualification.MonthOf(monthsBack(n, 1)).String()
}

func (h *Handler) seedMember(ctx context.Context, p profile.Profile) error {
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return err
	}
	enrolledAt, err := p.EnrolledAt()
	if err != nil {
		return err
	}
	return h.Store.SaveMember(ctx, sqlite.Member{
		ID:          p.ID,
		Name:        p.Name,
		ProfileJSON: string(profileJSON),
		EnrolledAt:  enrolledAt,
	})
}

func demoEvent(member string, kind ledger.EventKind, date time.Time, points, secondary float64, key string) ledger.PointEvent {
	return ledger.PointEvent{
		ID:              ledger.EventID(key),
		MemberID:        ledger.MemberID(member),
		Kind:            kind,
		OccurredAt:      date,
		Points:          qualification.NewPoints(points, qualification.UnitXP),
		SecondaryPoints: qualification.NewPoints(secondary, qualification.UnitUXP),
		IdempotencyKey:  key,
	}
}

func (h *Handler) loadFreshExplorerScenario(ctx context.Context) error {
	p := profile.Profile{
		ID:         "sky-001",
		Name:       "Nova Reyes",
		Enrolled:   monthsBack(3, 15).Format("2006-01-02"),
		CycleStart: monthKeyBack(3),
	}
	if err := h.seedMember(ctx, p); err != nil {
		return err
	}

	booked := demoEvent("sky-001", ledger.KindFlight, monthsBack(-1, 14), 120, 0, "scenario-fresh-explorer-3")
	booked.Scheduled = true
	booked.Note = "booked, not flown yet"

	events := []ledger.PointEvent{
		demoEvent("sky-001", ledger.KindFlight, monthsBack(2, 9), 30, 0, "scenario-fresh-explorer-1"),
		demoEvent("sky-001", ledger.KindFlight, monthsBack(1, 21), 45, 0, "scenario-fresh-explorer-2"),
		booked,
	}
	return h.Ledger.AppendBatch(ctx, events)
}

func (h *Handler) loadSilverClimberScenario(ctx context.Context) error {
	p := profile.Profile{
		ID:         "sky-002",
		Name:       "Malik Osei",
		Enrolled:   monthsBack(14, 2).Format("2006-01-02"),
		CycleStart: monthKeyBack(14),
	}
	if err := h.seedMember(ctx, p); err != nil {
		return err
	}

	// 40+35+45 crosses the first threshold in the third flying month,
	// closing the cycle early with 20 carried into a Silver cycle.
	correction := demoEvent("sky-002", ledger.KindCorrection, monthsBack(5, 28), -10, 0, "scenario-silver-climber-6")
	correction.Note = "double-credited segment"

	events := []ledger.PointEvent{
		demoEvent("sky-002", ledger.KindFlight, monthsBack(14, 6), 40, 0, "scenario-silver-climber-1"),
		demoEvent("sky-002", ledger.KindFlight, monthsBack(12, 11), 35, 0, "scenario-silver-climber-2"),
		demoEvent("sky-002", ledger.KindFlight, monthsBack(11, 19), 45, 0, "scenario-silver-climber-3"),
		demoEvent("sky-002", ledger.KindFlight, monthsBack(8, 14), 60, 0, "scenario-silver-climber-4"),
		demoEvent("sky-002", ledger.KindFlight, monthsBack(5, 8), 30, 0, "scenario-silver-climber-5"),
		correction,
		demoEvent("sky-002", ledger.KindFlight, monthsBack(2, 16), 25, 0, "scenario-silver-climber-7"),
	}
	return h.Ledger.AppendBatch(ctx, events)
}

func (h *Handler) loadPlatinumRequalifierScenario(ctx context.Context) error {
	p := profile.Profile{
		ID:           "sky-003",
		Name:         "Ingrid Walsh",
		Enrolled:     monthsBack(13, 1).Format("2006-01-02"),
		CycleStart:   monthKeyBack(13),
		StartingTier: "platinum",
		StartingXP:   320,
	}
	if err := h.seedMember(ctx, p); err != nil {
		return err
	}

	// 320 seeded + 240 flown clears the retention threshold at the
	// 12-month boundary; 260 of the excess carries into the next cycle.
	events := []ledger.PointEvent{
		demoEvent("sky-003", ledger.KindFlight, monthsBack(11, 7), 85, 40, "scenario-platinum-requalifier-1"),
		demoEvent("sky-003", ledger.KindFlight, monthsBack(7, 23), 65, 30, "scenario-platinum-requalifier-2"),
		demoEvent("sky-003", ledger.KindFlight, monthsBack(4, 12), 90, 45, "scenario-platinum-requalifier-3"),
		demoEvent("sky-003", ledger.KindFlight, monthsBack(0, 3), 40, 20, "scenario-platinum-requalifier-4"),
	}
	return h.Ledger.AppendBatch(ctx, events)
}

func (h *Handler) loadUltimateChaserScenario(ctx context.Context) error {
	p := profile.Profile{
		ID:           "sky-004",
		Name:         "Priya Chandran",
		Enrolled:     monthsBack(12, 8).Format("2006-01-02"),
		CycleStart:   monthKeyBack(12),
		StartingTier: "platinum",
		StartingUXP:  300,
	}
	if err := h.seedMember(ctx, p); err != nil {
		return err
	}

	// Secondary counter: 300 seeded + 680 earned crosses 900 on the
	// fourth flight, in the cycle's final month. The early close opens an
	// Ultimate window that is still running today.
	events := []ledger.PointEvent{
		demoEvent("sky-004", ledger.KindFlight, monthsBack(10, 9), 200, 180, "scenario-ultimate-chaser-1"),
		demoEvent("sky-004", ledger.KindFlight, monthsBack(8, 17), 220, 200, "scenario-ultimate-chaser-2"),
		demoEvent("sky-004", ledger.KindFlight, monthsBack(6, 5), 150, 140, "scenario-ultimate-chaser-3"),
		demoEvent("sky-004", ledger.KindFlight, monthsBack(1, 26), 180, 160, "scenario-ultimate-chaser-4"),
	}
	return h.Ledger.AppendBatch(ctx, events)
}
