/*
store.go - persistence contract for point events

PURPOSE:
  Defines the interface between the event log and whatever holds it.
  Implementations keep the append-only discipline; the interface has no
  update or delete.

IDEMPOTENCY:
  Every write may carry an idempotency key. A key the store has seen is
  rejected, which makes flight-feed retries and user double-clicks safe.

ATOMIC BATCHES:
  AppendBatch is all-or-nothing. A statement import of 30 flights either
  lands completely or not at all.

IMPLEMENTATIONS:
  - store/sqlite: production storage
  - ledger/store: in-memory, for tests and the demo binary

SEE ALSO:
  - ledger.go: the higher-level interface over this one
*/
package ledger

import (
	"context"
	"time"
)

// EventStore persists point events. APPEND-ONLY: no update, no delete.
type EventStore interface {
	// Append persists one event. Fails if its idempotency key exists.
	Append(ctx context.Context, ev PointEvent) error

	// AppendBatch persists events atomically. All land or none do.
	AppendBatch(ctx context.Context, evs []PointEvent) error

	// Load returns all events for a member, ordered by OccurredAt.
	Load(ctx context.Context, member MemberID) ([]PointEvent, error)

	// LoadRange returns a member's events with OccurredAt in [from, to).
	LoadRange(ctx context.Context, member MemberID, from, to time.Time) ([]PointEvent, error)

	// Exists checks whether an idempotency key has been used.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}
