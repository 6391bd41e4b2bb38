/*
ledger.go - append-only event log

PURPOSE:
  The ledger is the source of truth for everything a member has earned.
  Flights, bonuses, and corrections are recorded here and never edited;
  monthly totals and qualification cycles are always derived by replaying
  events, so there is no stored balance to drift out of sync.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: no update, no delete.
  2. IMMUTABLE: a written event never changes.
  3. IDEMPOTENT: the same idempotency key is accepted once.

CORRECTIONS:
  A mistaken import is not edited. A correction event with the opposite
  sign is appended; both remain visible and the monthly totals net out.

SEE ALSO:
  - store.go: the persistence contract
  - assemble.go: folding events into monthly entries
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrDuplicateIdempotencyKey rejects a second append with a key the store
// has already seen.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

// ErrEventNotFound indicates a lookup for an unknown event.
var ErrEventNotFound = errors.New("event not found")

// EventError reports an event that failed validation.
type EventError struct {
	ID     EventID
	Reason string
}

func (e *EventError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid event: %s", e.Reason)
	}
	return fmt.Sprintf("invalid event %s: %s", e.ID, e.Reason)
}

// IsInvalidEvent reports whether err is an event validation failure.
func IsInvalidEvent(err error) bool {
	var ev *EventError
	return errors.As(err, &ev)
}

// =============================================================================
// LEDGER - Append-only event log
// =============================================================================

// Ledger records point events and reads them back chronologically.
//
// INVARIANTS:
//   - Append-only: no update, no delete.
//   - Immutable: a written event never changes.
//
// Corrections are appended as correction events, never edits.
type Ledger interface {
	// Append records one event. Fails if its idempotency key exists.
	Append(ctx context.Context, ev PointEvent) error

	// AppendBatch records several events atomically, for bulk imports.
	AppendBatch(ctx context.Context, evs []PointEvent) error

	// Events returns a member's full history, ordered by occurrence.
	Events(ctx context.Context, member MemberID) ([]PointEvent, error)

	// EventsInRange returns events with OccurredAt in [from, to).
	EventsInRange(ctx context.Context, member MemberID, from, to time.Time) ([]PointEvent, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation over an EventStore
// =============================================================================

type DefaultLedger struct {
	Store EventStore
}

func NewLedger(store EventStore) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, ev PointEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.IdempotencyKey != "" {
		exists, err := l.Store.Exists(ctx, ev.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, ev)
}

func (l *DefaultLedger) AppendBatch(ctx context.Context, evs []PointEvent) error {
	// Validate and check every key before writing anything
	for _, ev := range evs {
		if err := ev.Validate(); err != nil {
			return err
		}
		if ev.IdempotencyKey != "" {
			exists, err := l.Store.Exists(ctx, ev.IdempotencyKey)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateIdempotencyKey
			}
		}
	}
	return l.Store.AppendBatch(ctx, evs)
}

func (l *DefaultLedger) Events(ctx context.Context, member MemberID) ([]PointEvent, error) {
	return l.Store.Load(ctx, member)
}

func (l *DefaultLedger) EventsInRange(ctx context.Context, member MemberID, from, to time.Time) ([]PointEvent, error) {
	return l.Store.LoadRange(ctx, member, from, to)
}
