package qualification_test

import (
	"testing"
	"time"

	"github.com/skyward/status-engine/qualification"
)

// Note: month and date helpers are defined in builder_test.go.

func TestParseMonth_RoundTrip(t *testing.T) {
	m, err := qualification.ParseMonth("2024-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.String() != "2024-03" {
		t.Errorf("expected 2024-03, got %s", m)
	}
	if m.Year() != 2024 || m.Month() != time.March {
		t.Errorf("expected March 2024, got %d-%d", m.Year(), m.Month())
	}
}

func TestParseMonth_Garbage_Errors(t *testing.T) {
	if _, err := qualification.ParseMonth("March 2024"); err == nil {
		t.Error("expected a parse error")
	}
	if _, err := qualification.ParseMonth(""); err == nil {
		t.Error("expected a parse error for the empty string")
	}
}

func TestMonth_StartAndEnd_HalfOpen(t *testing.T) {
	m := month(2024, time.January)

	if !m.Start().Equal(date(2024, time.January, 1)) {
		t.Errorf("expected start 2024-01-01, got %s", m.Start())
	}
	if !m.End().Equal(date(2024, time.February, 1)) {
		t.Errorf("the end is exclusive, expected 2024-02-01, got %s", m.End())
	}
	if !m.Contains(date(2024, time.January, 31)) {
		t.Error("the last day belongs to the month")
	}
	if m.Contains(date(2024, time.February, 1)) {
		t.Error("the end boundary does not belong to the month")
	}
}

func TestMonth_AddMonths_CrossesYears(t *testing.T) {
	m := month(2024, time.November).AddMonths(3)

	if m.Year() != 2025 || m.Month() != time.February {
		t.Errorf("expected 2025-02, got %s", m)
	}

	back := m.AddMonths(-3)
	if !back.Equal(month(2024, time.November)) {
		t.Errorf("expected 2024-11, got %s", back)
	}
}

func TestMonth_NextPrev_Adjacent(t *testing.T) {
	dec := month(2024, time.December)

	if !dec.Next().Equal(month(2025, time.January)) {
		t.Errorf("expected 2025-01, got %s", dec.Next())
	}
	if !dec.Prev().Equal(month(2024, time.November)) {
		t.Errorf("expected 2024-11, got %s", dec.Prev())
	}
}

func TestMonthsBetween_SpansYears(t *testing.T) {
	cases := []struct {
		a, b qualification.Month
		want int
	}{
		{month(2024, time.January), month(2024, time.December), 11},
		{month(2024, time.January), month(2025, time.January), 12},
		{month(2024, time.June), month(2024, time.June), 0},
		{month(2025, time.February), month(2024, time.November), -3},
	}
	for _, tc := range cases {
		if got := qualification.MonthsBetween(tc.a, tc.b); got != tc.want {
			t.Errorf("MonthsBetween(%s, %s): expected %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestMonthOf_TruncatesToFirstUTC(t *testing.T) {
	stamp := time.Date(2024, time.July, 19, 15, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	m := qualification.MonthOf(stamp)

	if !m.Equal(month(2024, time.July)) {
		t.Errorf("expected 2024-07, got %s", m)
	}
	if !m.Start().Equal(date(2024, time.July, 1)) {
		t.Errorf("expected first-of-month UTC, got %s", m.Start())
	}
}
