/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

WIRE FORMAT:
  - Dates are ISO strings: YYYY-MM-DD for days, YYYY-MM for months
  - Points are floats; decimals live only inside the engine
  - Tier names are lowercase: "explorer" .. "ultimate"

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - profile/profile.go: the inline enrollment document
*/
package api

import (
	"time"

	"github.com/skyward/status-engine/ledger"
	"github.com/skyward/status-engine/profile"
	"github.com/skyward/status-engine/qualification"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// MemberDTO represents a member in API responses.
type MemberDTO struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Profile    profile.Profile `json:"profile"`
	EnrolledAt string          `json:"enrolled_at,omitempty"`
	CreatedAt  string          `json:"created_at,omitempty"`
}

// EntryDTO is one ledger month inside a cycle.
type EntryDTO struct {
	Month           string  `json:"month"`
	ActualPoints    float64 `json:"actual_points"`
	ScheduledPoints float64 `json:"scheduled_points,omitempty"`
	SecondaryPoints float64 `json:"secondary_points,omitempty"`
	Correction      float64 `json:"correction,omitempty"`
}

// CycleDTO is one qualification cycle, primary or secondary.
type CycleDTO struct {
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	StartingTier    string     `json:"starting_tier"`
	ActualTier      string     `json:"actual_tier"`
	ProjectedTier   string     `json:"projected_tier"`
	ActualPoints    float64    `json:"actual_points"`
	ProjectedPoints float64    `json:"projected_points"`
	RolloverIn      float64    `json:"rollover_in"`
	RolloverOut     float64    `json:"rollover_out"`
	ClosedEarly     bool       `json:"closed_early"`
	Entries         []EntryDTO `json:"entries,omitempty"`
}

// ProgressDTO describes how far the active cycle has climbed.
type ProgressDTO struct {
	Current string  `json:"current"`
	Next    string  `json:"next"`
	Balance float64 `json:"balance"`
	Needed  float64 `json:"needed"`
	AtTop   bool    `json:"at_top"`
}

// WarningDTO surfaces an input irregularity the engine worked around.
type WarningDTO struct {
	Code    string `json:"code"`
	Month   string `json:"month,omitempty"`
	Message string `json:"message"`
}

// StatusDTO is the computed standing of one member at a point in time.
type StatusDTO struct {
	MemberID      string       `json:"member_id"`
	AsOf          string       `json:"as_of"`
	EffectiveTier string       `json:"effective_tier"`
	ActiveCycle   *CycleDTO    `json:"active_cycle,omitempty"`
	ActiveWindow  *CycleDTO    `json:"active_window,omitempty"`
	Progress      *ProgressDTO `json:"progress,omitempty"`
	Warnings      []WarningDTO `json:"warnings,omitempty"`
}

// EventDTO represents a ledger event in API responses.
type EventDTO struct {
	ID              string  `json:"id"`
	MemberID        string  `json:"member_id"`
	Kind            string  `json:"kind"`
	OccurredAt      string  `json:"occurred_at"`
	Points          float64 `json:"points"`
	SecondaryPoints float64 `json:"secondary_points,omitempty"`
	Scheduled       bool    `json:"scheduled,omitempty"`
	IdempotencyKey  string  `json:"idempotency_key,omitempty"`
	Note            string  `json:"note,omitempty"`
}

// AppendEventRequest records one earning event.
type AppendEventRequest struct {
	Kind            string  `json:"kind"`
	OccurredAt      string  `json:"occurred_at"` // YYYY-MM-DD
	Points          float64 `json:"points"`
	SecondaryPoints float64 `json:"secondary_points,omitempty"`
	Scheduled       bool    `json:"scheduled,omitempty"`
	IdempotencyKey  string  `json:"idempotency_key,omitempty"`
	Note            string  `json:"note,omitempty"`
}

// CorrectionRequest appends a signed adjustment event.
type CorrectionRequest struct {
	OccurredAt     string  `json:"occurred_at"` // YYYY-MM-DD
	Points         float64 `json:"points"`
	Reason         string  `json:"reason,omitempty"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to seed.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func pointsFloat(p qualification.Points) float64 {
	return p.Value.InexactFloat64()
}

func toEntryDTO(e qualification.LedgerEntry) EntryDTO {
	return EntryDTO{
		Month:           e.Month.String(),
		ActualPoints:    pointsFloat(e.ActualPoints),
		ScheduledPoints: pointsFloat(e.ScheduledPoints),
		SecondaryPoints: pointsFloat(e.SecondaryPoints),
		Correction:      pointsFloat(e.Correction),
	}
}

func toEntryDTOs(entries []qualification.LedgerEntry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toCycleDTO(c qualification.Cycle, withEntries bool) CycleDTO {
	dto := CycleDTO{
		StartDate:       c.StartDate.Format("2006-01-02"),
		EndDate:         c.EndDate.Format("2006-01-02"),
		StartingTier:    string(c.StartingTier),
		ActualTier:      string(c.ActualTier),
		ProjectedTier:   string(c.ProjectedTier),
		ActualPoints:    pointsFloat(c.ActualPoints),
		ProjectedPoints: pointsFloat(c.ProjectedPoints),
		RolloverIn:      pointsFloat(c.RolloverIn),
		RolloverOut:     pointsFloat(c.RolloverOut),
		ClosedEarly:     c.ClosedEarly,
	}
	if withEntries {
		dto.Entries = toEntryDTOs(c.Entries)
	}
	return dto
}

func toSecondaryCycleDTO(s qualification.SecondaryCycle, withEntries bool) CycleDTO {
	dto := CycleDTO{
		StartDate:       s.StartDate.Format("2006-01-02"),
		EndDate:         s.EndDate.Format("2006-01-02"),
		StartingTier:    string(s.StartingTier),
		ActualTier:      string(s.ActualTier),
		ProjectedTier:   string(s.ProjectedTier),
		ActualPoints:    pointsFloat(s.ActualPoints),
		ProjectedPoints: pointsFloat(s.ProjectedPoints),
		RolloverIn:      pointsFloat(s.RolloverIn),
		RolloverOut:     pointsFloat(s.RolloverOut),
		ClosedEarly:     s.ClosedEarly,
	}
	if withEntries {
		dto.Entries = toEntryDTOs(s.Entries)
	}
	return dto
}

func toEventDTO(ev ledger.PointEvent) EventDTO {
	return EventDTO{
		ID:              string(ev.ID),
		MemberID:        string(ev.MemberID),
		Kind:            string(ev.Kind),
		OccurredAt:      ev.OccurredAt.UTC().Format("2006-01-02"),
		Points:          pointsFloat(ev.Points),
		SecondaryPoints: pointsFloat(ev.SecondaryPoints),
		Scheduled:       ev.Scheduled,
		IdempotencyKey:  ev.IdempotencyKey,
		Note:            ev.Note,
	}
}

func toEventDTOs(evs []ledger.PointEvent) []EventDTO {
	dtos := make([]EventDTO, len(evs))
	for i, ev := range evs {
		dtos[i] = toEventDTO(ev)
	}
	return dtos
}

func toWarningDTOs(warns []qualification.Warning) []WarningDTO {
	if len(warns) == 0 {
		return nil
	}
	dtos := make([]WarningDTO, len(warns))
	for i, w := range warns {
		dtos[i] = WarningDTO{Code: string(w.Code), Month: w.Month, Message: w.Message}
	}
	return dtos
}

func toMemberDTO(id, name string, p profile.Profile, enrolledAt, createdAt time.Time) MemberDTO {
	dto := MemberDTO{ID: id, Name: name, Profile: p}
	if !enrolledAt.IsZero() {
		dto.EnrolledAt = enrolledAt.UTC().Format("2006-01-02")
	}
	if !createdAt.IsZero() {
		dto.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	}
	return dto
}
