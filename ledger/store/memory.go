// Package store provides EventStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skyward/status-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	events      map[ledger.MemberID][]ledger.PointEvent
	idempotency map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		events:      make(map[ledger.MemberID][]ledger.PointEvent),
		idempotency: make(map[string]bool),
	}
}

// Append adds a single event. Append-only.
func (m *Memory) Append(_ context.Context, ev ledger.PointEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.IdempotencyKey != "" && m.idempotency[ev.IdempotencyKey] {
		return ledger.ErrDuplicateIdempotencyKey
	}
	m.appendLocked(ev)
	return nil
}

// AppendBatch adds multiple events atomically.
func (m *Memory) AppendBatch(_ context.Context, evs []ledger.PointEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first (atomic check)
	for _, ev := range evs {
		if ev.IdempotencyKey != "" && m.idempotency[ev.IdempotencyKey] {
			return ledger.ErrDuplicateIdempotencyKey
		}
	}

	for _, ev := range evs {
		m.appendLocked(ev)
	}
	return nil
}

func (m *Memory) appendLocked(ev ledger.PointEvent) {
	evs := m.events[ev.MemberID]

	// Binary search for the insertion point to keep the slice ordered
	i := sort.Search(len(evs), func(i int) bool {
		return evs[i].OccurredAt.After(ev.OccurredAt)
	})

	evs = append(evs, ledger.PointEvent{})
	copy(evs[i+1:], evs[i:])
	evs[i] = ev
	m.events[ev.MemberID] = evs

	if ev.IdempotencyKey != "" {
		m.idempotency[ev.IdempotencyKey] = true
	}
}

func (m *Memory) Load(_ context.Context, member ledger.MemberID) ([]ledger.PointEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.PointEvent, len(m.events[member]))
	copy(result, m.events[member])
	return result, nil
}

func (m *Memory) LoadRange(_ context.Context, member ledger.MemberID, from, to time.Time) ([]ledger.PointEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.PointEvent
	for _, ev := range m.events[member] {
		if !ev.OccurredAt.Before(from) && ev.OccurredAt.Before(to) {
			result = append(result, ev)
		}
	}
	return result, nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}
