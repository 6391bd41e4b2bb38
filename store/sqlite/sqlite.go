/*
Package sqlite provides SQLite-backed persistence for the status engine.

PURPOSE:
  Implements ledger.EventStore plus member records and computed status
  snapshots using SQLite. In production the same patterns apply to
  PostgreSQL, only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The point_events table is a ledger:
  - No UPDATE statements on point_events
  - No DELETE statements on point_events
  - Corrections are appended as new events with the opposite sign

KEY TABLES:
  members:          Member records with the profile document inline
  point_events:     Immutable ledger of earning events
  status_snapshots: Cached computed status, one row per member

INDEXES:
  - idx_point_events_member_date: event replay per member (hot path)
  - idx_point_events_idempotency: duplicate-import rejection

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control would handle this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/status.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  lgr := ledger.NewLedger(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: EventStore contract
  - ledger/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/skyward/status-engine/ledger"
	"github.com/skyward/status-engine/qualification"
)

// Store implements ledger.EventStore plus member and snapshot persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Members
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		profile_json TEXT NOT NULL DEFAULT '{}',
		enrolled_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Point events (append-only ledger)
	CREATE TABLE IF NOT EXISTS point_events (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		points TEXT NOT NULL,
		secondary_points TEXT NOT NULL,
		scheduled INTEGER NOT NULL DEFAULT 0,
		idempotency_key TEXT UNIQUE,
		note TEXT,
		created_at TEXT NOT NULL
	);

	-- Event replay per member (hot path)
	CREATE INDEX IF NOT EXISTS idx_point_events_member_date
		ON point_events(member_id, occurred_at);

	CREATE INDEX IF NOT EXISTS idx_point_events_idempotency
		ON point_events(idempotency_key) WHERE idempotency_key IS NOT NULL;

	-- Computed status cache (one row per member)
	CREATE TABLE IF NOT EXISTS status_snapshots (
		member_id TEXT PRIMARY KEY,
		computed_at TEXT NOT NULL,
		ledger_hash TEXT NOT NULL,
		status_json TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EVENT STORE (ledger.EventStore interface)
// =============================================================================

// Append adds an event to the ledger.
func (s *Store) Append(ctx context.Context, ev ledger.PointEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendEvent(ctx, s.db, ev)
}

func (s *Store) appendEvent(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, ev ledger.PointEvent) error {
	query := `
		INSERT INTO point_events
		(id, member_id, kind, occurred_at, points, secondary_points,
		 scheduled, idempotency_key, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		string(ev.ID),
		string(ev.MemberID),
		string(ev.Kind),
		ev.OccurredAt.UTC().Format(time.RFC3339),
		ev.Points.Value.String(),
		ev.SecondaryPoints.Value.String(),
		ev.Scheduled,
		nullString(ev.IdempotencyKey),
		nullString(ev.Note),
		time.Now().UTC().Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// AppendBatch adds multiple events atomically.
func (s *Store) AppendBatch(ctx context.Context, evs []ledger.PointEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicate idempotency keys within the batch first
	keys := make(map[string]bool)
	for _, ev := range evs {
		if ev.IdempotencyKey != "" {
			if keys[ev.IdempotencyKey] {
				return ledger.ErrDuplicateIdempotencyKey
			}
			keys[ev.IdempotencyKey] = true
		}
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, ev := range evs {
		if err := s.appendEvent(ctx, sqlTx, ev); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// Load returns a member's full event history, ordered by occurrence.
func (s *Store) Load(ctx context.Context, member ledger.MemberID) ([]ledger.PointEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, member_id, kind, occurred_at, points, secondary_points,
		       scheduled, idempotency_key, note
		FROM point_events
		WHERE member_id = ?
		ORDER BY occurred_at ASC, created_at ASC
	`

	return s.queryEvents(ctx, query, string(member))
}

// LoadRange returns events with OccurredAt in [from, to).
func (s *Store) LoadRange(ctx context.Context, member ledger.MemberID, from, to time.Time) ([]ledger.PointEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// RFC3339 UTC strings order the same way the times do
	query := `
		SELECT id, member_id, kind, occurred_at, points, secondary_points,
		       scheduled, idempotency_key, note
		FROM point_events
		WHERE member_id = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at ASC, created_at ASC
	`

	return s.queryEvents(ctx, query, string(member),
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

// Exists checks if an idempotency key has been used.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM point_events WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ledger.PointEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []ledger.PointEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (ledger.PointEvent, error) {
	var (
		ev              ledger.PointEvent
		occurredAt      string
		points          string
		secondaryPoints string
		idempotencyKey  sql.NullString
		note            sql.NullString
	)

	err := rows.Scan(
		&ev.ID, &ev.MemberID, &ev.Kind, &occurredAt,
		&points, &secondaryPoints, &ev.Scheduled,
		&idempotencyKey, &note,
	)
	if err != nil {
		return ev, fmt.Errorf("failed to scan event: %w", err)
	}

	t, _ := time.Parse(time.RFC3339, occurredAt)
	ev.OccurredAt = t
	ev.Points = parsePoints(points, qualification.UnitXP)
	ev.SecondaryPoints = parsePoints(secondaryPoints, qualification.UnitUXP)
	ev.IdempotencyKey = idempotencyKey.String
	ev.Note = note.String

	return ev, nil
}

// =============================================================================
// MEMBER STORE
// =============================================================================

// Member is a stored member record. ProfileJSON holds the profile
// document the member was enrolled with.
type Member struct {
	ID          string
	Name        string
	ProfileJSON string
	EnrolledAt  time.Time
	CreatedAt   time.Time
}

// SaveMember inserts or updates a member.
func (s *Store) SaveMember(ctx context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO members (id, name, profile_json, enrolled_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			profile_json = excluded.profile_json,
			enrolled_at = excluded.enrolled_at
	`

	var enrolledAt *string
	if !m.EnrolledAt.IsZero() {
		t := m.EnrolledAt.UTC().Format(time.RFC3339)
		enrolledAt = &t
	}

	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.Name, m.ProfileJSON, enrolledAt,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetMember retrieves a member by ID. Returns nil when not found.
func (s *Store) GetMember(ctx context.Context, id string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var m Member
	var enrolledAt sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, profile_json, enrolled_at, created_at FROM members WHERE id = ?",
		id,
	).Scan(&m.ID, &m.Name, &m.ProfileJSON, &enrolledAt, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if enrolledAt.Valid {
		m.EnrolledAt, _ = time.Parse(time.RFC3339, enrolledAt.String)
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &m, nil
}

// ListMembers returns all members ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, profile_json, enrolled_at, created_at FROM members ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var enrolledAt sql.NullString
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Name, &m.ProfileJSON, &enrolledAt, &createdAt); err != nil {
			return nil, err
		}
		if enrolledAt.Valid {
			m.EnrolledAt, _ = time.Parse(time.RFC3339, enrolledAt.String)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

// DeleteMember removes a member record and its cached status. The event
// history stays, the ledger is append-only.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM status_snapshots WHERE member_id = ?", id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	return err
}

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

// SnapshotRecord is a member's cached computed status. LedgerHash
// fingerprints the inputs it was computed from, so a stale snapshot is
// detectable without recomputing.
type SnapshotRecord struct {
	MemberID   string
	ComputedAt time.Time
	LedgerHash string
	StatusJSON string
}

// SaveSnapshot inserts or replaces a member's cached status.
func (s *Store) SaveSnapshot(ctx context.Context, snap SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO status_snapshots (member_id, computed_at, ledger_hash, status_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET
			computed_at = excluded.computed_at,
			ledger_hash = excluded.ledger_hash,
			status_json = excluded.status_json
	`

	_, err := s.db.ExecContext(ctx, query,
		snap.MemberID,
		snap.ComputedAt.UTC().Format(time.RFC3339),
		snap.LedgerHash,
		snap.StatusJSON,
	)
	return err
}

// GetSnapshot retrieves a member's cached status. Returns nil when none
// has been computed.
func (s *Store) GetSnapshot(ctx context.Context, memberID string) (*SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap SnapshotRecord
	var computedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT member_id, computed_at, ledger_hash, status_json FROM status_snapshots WHERE member_id = ?",
		memberID,
	).Scan(&snap.MemberID, &computedAt, &snap.LedgerHash, &snap.StatusJSON)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
	return &snap, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data. For demo seeding and tests only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"point_events", "status_snapshots", "members"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parsePoints(value string, unit qualification.Unit) qualification.Points {
	d, err := decimal.NewFromString(value)
	if err != nil {
		d = decimal.Zero
	}
	return qualification.Points{Value: d, Unit: unit}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
