/*
errors.go - sentinel errors, structured errors, and warnings

PURPOSE:
  The engine separates programmer errors from data problems. Programmer
  errors (a malformed custom ruleset, querying an empty cycle sequence)
  surface as Go errors. Data problems (duplicate months, malformed keys,
  out-of-range config values) degrade to defined defaults and are reported
  as Warnings travelling with the result, so a partially dirty ledger still
  computes.

USAGE:
  Callers branch on sentinels:

    if errors.Is(err, qualification.ErrInvalidRuleset) { ... }

  and surface warnings to the user:

    for _, w := range result.Warnings { log.Warn(w.String()) }

SEE ALSO:
  - engine.go: produces warnings during normalization
  - query.go: returns ErrNoCycles
*/
package qualification

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoCycles is returned by queries over an empty cycle sequence.
	// A non-empty sequence never produces it: queries are total.
	ErrNoCycles = errors.New("no cycles computed")

	// ErrInvalidRuleset wraps every ruleset validation failure.
	ErrInvalidRuleset = errors.New("invalid ruleset")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RulesetError reports which ruleset field failed validation and why.
type RulesetError struct {
	Field  string
	Reason string
}

func (e *RulesetError) Error() string {
	return fmt.Sprintf("invalid ruleset: %s: %s", e.Field, e.Reason)
}

func (e *RulesetError) Unwrap() error { return ErrInvalidRuleset }

// =============================================================================
// WARNINGS - Degradation diagnostics carried with results
// =============================================================================

type WarningCode string

const (
	WarnMalformedMonth   WarningCode = "malformed_month"    // zero month key, entry skipped
	WarnDuplicateMonth   WarningCode = "duplicate_month"    // same-month entries merged
	WarnEntryBeforeStart WarningCode = "entry_before_start" // predates the cycle start, skipped
	WarnSecondaryExcess  WarningCode = "secondary_excess"   // secondary points exceed actual
	WarnConfigDefaulted  WarningCode = "config_defaulted"   // a config field fell back to its default
)

// Warning describes one degradation applied while computing. Month is the
// ISO key of the affected entry, empty for config-level warnings.
type Warning struct {
	Code    WarningCode
	Month   string
	Message string
}

func (w Warning) String() string {
	if w.Month == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s (%s): %s", w.Code, w.Month, w.Message)
}

func warnf(code WarningCode, month Month, format string, args ...any) Warning {
	w := Warning{Code: code, Message: fmt.Sprintf(format, args...)}
	if !month.IsZero() {
		w.Month = month.String()
	}
	return w
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInvalidRuleset reports whether err came from ruleset validation.
func IsInvalidRuleset(err error) bool { return errors.Is(err, ErrInvalidRuleset) }
