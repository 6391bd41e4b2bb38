/*
handlers.go - HTTP API handlers for the status engine

PURPOSE:
  Exposes the qualification engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Members:
    GET    /api/members                        List all members
    POST   /api/members                        Enroll member (profile inline)
    GET    /api/members/{id}                   Get member details
    DELETE /api/members/{id}                   Remove member record

  Status:
    GET    /api/members/{id}/status            Computed standing (?as_of=)
    GET    /api/members/{id}/cycles            Cycle sequence (?from=&to=)
    GET    /api/members/{id}/secondary-cycles  Secondary windows

  Events:
    GET    /api/members/{id}/events            Event history (?from=&to=)
    POST   /api/members/{id}/events            Record earning event
    POST   /api/members/{id}/corrections       Append signed adjustment

  Scenarios:
    GET    /api/scenarios                      List demo scenarios
    POST   /api/scenarios/load                 Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Replay the member's ledger through the engine
  4. Serialize response
  5. Handle errors

COMPUTE PATH:
  Status is always derived: events -> monthly entries -> Compute. The
  cached engine memoizes on an input fingerprint, so repeated reads of
  an unchanged ledger cost one map lookup. The entry sequence is padded
  with zero months up to the present so idle members still settle their
  boundaries.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Member not found
  - 409: Conflict (duplicate idempotency key)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skyward/status-engine/ledger"
	"github.com/skyward/status-engine/profile"
	"github.com/skyward/status-engine/qualification"
	"github.com/skyward/status-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// ErrMemberNotFound is returned by ComputeResult for unknown members.
var ErrMemberNotFound = errors.New("member not found")

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Ledger *ledger.DefaultLedger
	Engine *qualification.CachedEngine

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler over the given store and engine.
func NewHandler(store *sqlite.Store, engine *qualification.CachedEngine) *Handler {
	return &Handler{
		Store:  store,
		Ledger: ledger.NewLedger(store),
		Engine: engine,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// ListMembers returns all members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Store.ListMembers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}

	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		p, _ := profile.Parse([]byte(m.ProfileJSON))
		dtos[i] = toMemberDTO(m.ID, m.Name, p, m.EnrolledAt, m.CreatedAt)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetMember returns a single member.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	p, _ := profile.Parse([]byte(m.ProfileJSON))
	writeJSON(w, http.StatusOK, toMemberDTO(m.ID, m.Name, p, m.EnrolledAt, m.CreatedAt))
}

// CreateMember enrolls a member. The request body is the profile
// document itself, JSON or YAML.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	p, err := profile.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile document", err)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile", err)
		return
	}
	if _, err := p.Config(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile", err)
		return
	}

	enrolledAt, _ := p.EnrolledAt()
	profileJSON, err := json.Marshal(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode profile", err)
		return
	}

	m := sqlite.Member{
		ID:          p.ID,
		Name:        p.Name,
		ProfileJSON: string(profileJSON),
		EnrolledAt:  enrolledAt,
	}
	if err := h.Store.SaveMember(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save member", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMemberDTO(m.ID, m.Name, p, m.EnrolledAt, time.Now().UTC()))
}

// DeleteMember removes a member record. Event history is kept.
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteMember(r.Context(), m.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete member", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STATUS HANDLERS
// =============================================================================

// GetStatus returns the member's computed standing.
// GET /api/members/{id}/status?as_of=YYYY-MM-DD
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if s := r.URL.Query().Get("as_of"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
			return
		}
		asOf = t
	}

	res, err := h.computeResult(r.Context(), m, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute status", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toStatusDTO(m.ID, asOf, res))
}

func (h *Handler) toStatusDTO(memberID string, asOf time.Time, res qualification.Result) StatusDTO {
	dto := StatusDTO{
		MemberID:      memberID,
		AsOf:          asOf.Format("2006-01-02"),
		EffectiveTier: string(res.EffectiveTier(asOf)),
		Warnings:      toWarningDTOs(res.Warnings),
	}

	if c, err := qualification.FindActiveCycle(res.Cycles, asOf); err == nil {
		cd := toCycleDTO(c, true)
		dto.ActiveCycle = &cd
	}
	if s, err := qualification.FindActiveSecondaryCycle(res.SecondaryCycles, asOf); err == nil && s.Contains(asOf) {
		sd := toSecondaryCycleDTO(s, true)
		dto.ActiveWindow = &sd
	}
	if prog, err := res.Progress(asOf); err == nil {
		dto.Progress = &ProgressDTO{
			Current: string(prog.Current),
			Next:    string(prog.Next),
			Balance: pointsFloat(prog.Balance),
			Needed:  pointsFloat(prog.Needed),
			AtTop:   prog.AtTop,
		}
	}

	return dto
}

// GetCycles returns the member's cycle sequence.
// GET /api/members/{id}/cycles?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetCycles(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range (use YYYY-MM-DD)", err)
		return
	}

	res, err := h.computeResult(r.Context(), m, laterOf(to, time.Now().UTC()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute cycles", err)
		return
	}

	cycles := res.Cycles
	if !from.IsZero() || !to.IsZero() {
		f, t := rangeOrOpen(from, to)
		cycles = qualification.CyclesInRange(cycles, f, t)
	}

	dtos := make([]CycleDTO, len(cycles))
	for i, c := range cycles {
		dtos[i] = toCycleDTO(c, true)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSecondaryCycles returns the member's secondary windows.
func (h *Handler) GetSecondaryCycles(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range (use YYYY-MM-DD)", err)
		return
	}

	res, err := h.computeResult(r.Context(), m, laterOf(to, time.Now().UTC()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute cycles", err)
		return
	}

	windows := res.SecondaryCycles
	if !from.IsZero() || !to.IsZero() {
		f, t := rangeOrOpen(from, to)
		windows = qualification.SecondaryCyclesInRange(windows, f, t)
	}

	dtos := make([]CycleDTO, len(windows))
	for i, s := range windows {
		dtos[i] = toSecondaryCycleDTO(s, true)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// GetEvents returns a member's event history.
// GET /api/members/{id}/events?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range (use YYYY-MM-DD)", err)
		return
	}

	var events []ledger.PointEvent
	if !from.IsZero() || !to.IsZero() {
		f, t := rangeOrOpen(from, to)
		events, err = h.Ledger.EventsInRange(r.Context(), ledger.MemberID(m.ID), f, t)
	} else {
		events, err = h.Ledger.Events(r.Context(), ledger.MemberID(m.ID))
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load events", err)
		return
	}

	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// AppendEvent records one earning event.
func (h *Handler) AppendEvent(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	var req AppendEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind, known := ledger.ParseEventKind(req.Kind)
	if !known {
		writeError(w, http.StatusBadRequest, "Unknown event kind (flight, bonus, correction)", nil)
		return
	}
	occurredAt, err := time.Parse("2006-01-02", req.OccurredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid occurred_at date (use YYYY-MM-DD)", err)
		return
	}

	ev := ledger.PointEvent{
		ID:              ledger.NewEventID(),
		MemberID:        ledger.MemberID(m.ID),
		Kind:            kind,
		OccurredAt:      occurredAt,
		Points:          qualification.NewPoints(req.Points, qualification.UnitXP),
		SecondaryPoints: qualification.NewPoints(req.SecondaryPoints, qualification.UnitUXP),
		Scheduled:       req.Scheduled,
		IdempotencyKey:  req.IdempotencyKey,
		Note:            req.Note,
	}

	if !h.appendOne(w, r, ev) {
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// PostCorrection appends a signed adjustment event. The original event
// is never edited; the monthly totals net out.
func (h *Handler) PostCorrection(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMember(w, r)
	if !ok {
		return
	}

	var req CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	occurredAt, err := time.Parse("2006-01-02", req.OccurredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid occurred_at date (use YYYY-MM-DD)", err)
		return
	}

	ev := ledger.PointEvent{
		ID:              ledger.NewEventID(),
		MemberID:        ledger.MemberID(m.ID),
		Kind:            ledger.KindCorrection,
		OccurredAt:      occurredAt,
		Points:          qualification.NewPoints(req.Points, qualification.UnitXP),
		SecondaryPoints: qualification.NewPoints(0, qualification.UnitUXP),
		IdempotencyKey:  req.IdempotencyKey,
		Note:            req.Reason,
	}

	if !h.appendOne(w, r, ev) {
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

func (h *Handler) appendOne(w http.ResponseWriter, r *http.Request, ev ledger.PointEvent) bool {
	err := h.Ledger.Append(r.Context(), ev)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ledger.ErrDuplicateIdempotencyKey):
		writeError(w, http.StatusConflict, "Idempotency key already used", err)
	case ledger.IsInvalidEvent(err):
		writeError(w, http.StatusBadRequest, "Invalid event", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to append event", err)
	}
	return false
}

// =============================================================================
// COMPUTE PATH
// =============================================================================

// computeResult replays the member's ledger through the engine, padded
// with zero months up to asOf so boundary settlements fire for idle
// members.
func (h *Handler) computeResult(ctx context.Context, m *sqlite.Member, asOf time.Time) (qualification.Result, error) {
	cfg, entries, err := h.loadInputs(ctx, m, asOf)
	if err != nil {
		return qualification.Result{}, err
	}
	return h.Engine.Compute(entries, cfg), nil
}

// ComputeResult replays a member's ledger into their full cycle history.
// Same path the HTTP handlers use, exported for the CLI.
func (h *Handler) ComputeResult(ctx context.Context, memberID string, asOf time.Time) (qualification.Result, error) {
	m, err := h.Store.GetMember(ctx, memberID)
	if err != nil {
		return qualification.Result{}, err
	}
	if m == nil {
		return qualification.Result{}, ErrMemberNotFound
	}
	return h.computeResult(ctx, m, asOf)
}

// loadInputs assembles the exact inputs Compute would see, so callers can
// fingerprint them without computing.
func (h *Handler) loadInputs(ctx context.Context, m *sqlite.Member, asOf time.Time) (qualification.Config, []qualification.LedgerEntry, error) {
	p, err := profile.Parse([]byte(m.ProfileJSON))
	if err != nil {
		return qualification.Config{}, nil, err
	}
	cfg, err := p.Config()
	if err != nil {
		return qualification.Config{}, nil, err
	}

	events, err := h.Ledger.Events(ctx, ledger.MemberID(m.ID))
	if err != nil {
		return qualification.Config{}, nil, err
	}

	entries := ledger.BuildEntries(events, cfg.CycleStart, qualification.MonthOf(asOf))
	return cfg, entries, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadMember(w http.ResponseWriter, r *http.Request) (*sqlite.Member, bool) {
	id := chi.URLParam(r, "id")

	m, err := h.Store.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return nil, false
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return nil, false
	}
	return m, true
}

func parseRange(r *http.Request) (from, to time.Time, err error) {
	if s := r.URL.Query().Get("from"); s != "" {
		from, err = time.Parse("2006-01-02", s)
		if err != nil {
			return
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		to, err = time.Parse("2006-01-02", s)
		if err != nil {
			return
		}
	}
	return
}

// rangeOrOpen widens missing bounds to cover everything.
func rangeOrOpen(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(2200, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return from, to
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
