/*
events.go - point-earning events

PURPOSE:
  A PointEvent is one earning occurrence: a flown flight segment, a
  promotion bonus, or a manual correction. Events are the raw material;
  the qualification engine never sees them directly. assemble.go folds
  them into the monthly ledger entries the engine consumes.

KEY CONCEPTS:
  - Events carry exact dates; the engine works in whole months. The
    month an event lands in is derived from OccurredAt.
  - Scheduled events are booked-but-not-flown segments. They only ever
    feed projected totals.
  - SecondaryPoints are the portion of an event's points that also count
    toward the top standing. Most bonuses carry none.

SEE ALSO:
  - assemble.go: folding events into monthly entries
  - store.go: persistence contract for events
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skyward/status-engine/qualification"
)

type (
	EventID  string
	MemberID string
)

// NewEventID mints a random event identifier.
func NewEventID() EventID { return EventID(uuid.NewString()) }

// EventKind classifies where points came from.
type EventKind string

const (
	KindFlight     EventKind = "flight"     // a flown segment
	KindBonus      EventKind = "bonus"      // promotion or partner bonus, no secondary share
	KindCorrection EventKind = "correction" // signed manual adjustment
)

// ParseEventKind maps a stored string back to a kind.
func ParseEventKind(s string) (EventKind, bool) {
	switch EventKind(s) {
	case KindFlight, KindBonus, KindCorrection:
		return EventKind(s), true
	}
	return "", false
}

// PointEvent is a single earning occurrence on a member's account.
type PointEvent struct {
	ID       EventID
	MemberID MemberID
	Kind     EventKind

	// OccurredAt dates the event; for scheduled events this is the
	// planned date.
	OccurredAt time.Time

	// Points earned on the primary counter. Corrections may be negative.
	Points qualification.Points

	// SecondaryPoints is the share of Points that also counts toward the
	// top standing.
	SecondaryPoints qualification.Points

	// Scheduled marks a booked-but-not-occurred event. It contributes to
	// projections only and flips to false once the flight is flown.
	Scheduled bool

	// IdempotencyKey deduplicates imports. Empty skips the check.
	IdempotencyKey string

	Note string
}

// Validate rejects events that cannot be attributed.
func (e PointEvent) Validate() error {
	if e.MemberID == "" {
		return &EventError{ID: e.ID, Reason: "member id is required"}
	}
	if e.OccurredAt.IsZero() {
		return &EventError{ID: e.ID, Reason: "occurrence date is required"}
	}
	if _, ok := ParseEventKind(string(e.Kind)); !ok {
		return &EventError{ID: e.ID, Reason: fmt.Sprintf("unknown kind %q", e.Kind)}
	}
	if e.Scheduled && e.Kind == KindCorrection {
		return &EventError{ID: e.ID, Reason: "corrections cannot be scheduled"}
	}
	return nil
}

// Month returns the ledger month this event lands in.
func (e PointEvent) Month() qualification.Month {
	return qualification.MonthOf(e.OccurredAt)
}
