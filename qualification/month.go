/*
month.go - calendar-month keys and date arithmetic

PURPOSE:
  Every ledger entry and cycle boundary in the engine is keyed by a calendar
  month. Month wraps a time.Time normalized to the first day of the month in
  UTC so comparison and arithmetic stay trivial, and all date math the engine
  needs lives in this one file. ISO strings ("2006-01") appear only at the
  edges: DTOs, storage, CLI output.

KEY CONCEPTS:
  Normalization: any time.Time collapses to year+month, day 1, 00:00 UTC.
  Exclusive ends: a cycle's EndDate is the first instant of the month after
  the last covered month, so adjacent cycles share a boundary instant.

SEE ALSO:
  - builder.go: the main consumer of month arithmetic
  - api/dto.go: ISO rendering at the HTTP boundary
*/
package qualification

import (
	"fmt"
	"time"
)

// Month identifies a single calendar month. The zero value is invalid and
// is treated as a malformed key by the engine.
type Month struct {
	Time time.Time
}

// NewMonth creates the Month for the given year and calendar month.
func NewMonth(year int, month time.Month) Month {
	return Month{Time: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return NewMonth(u.Year(), u.Month())
}

// ParseMonth parses an ISO month key such as "2026-03".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month key %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// IsZero reports whether m is the invalid zero value.
func (m Month) IsZero() bool { return m.Time.IsZero() }

// Year returns the calendar year.
func (m Month) Year() int { return m.Time.Year() }

// Month returns the calendar month within the year.
func (m Month) Month() time.Month { return m.Time.Month() }

// Start returns the first instant of the month (inclusive).
func (m Month) Start() time.Time { return m.Time }

// End returns the first instant of the following month (exclusive).
func (m Month) End() time.Time { return m.Next().Time }

// Next returns the following month.
func (m Month) Next() Month { return Month{Time: m.Time.AddDate(0, 1, 0)} }

// Prev returns the preceding month.
func (m Month) Prev() Month { return Month{Time: m.Time.AddDate(0, -1, 0)} }

// AddMonths returns the month n months later. n may be negative.
func (m Month) AddMonths(n int) Month { return Month{Time: m.Time.AddDate(0, n, 0)} }

// Before reports whether m is earlier than other.
func (m Month) Before(other Month) bool { return m.Time.Before(other.Time) }

// After reports whether m is later than other.
func (m Month) After(other Month) bool { return m.Time.After(other.Time) }

// Equal reports whether m and other name the same month.
func (m Month) Equal(other Month) bool { return m.Time.Equal(other.Time) }

// Contains reports whether the instant t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(m.Start()) && u.Before(m.End())
}

// String renders the ISO month key, e.g. "2026-03".
func (m Month) String() string { return m.Time.Format("2006-01") }

// MonthsBetween returns the number of whole months from a to b.
// MonthsBetween(a, a) is 0; b before a yields a negative count.
func MonthsBetween(a, b Month) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
