/*
engine.go - the qualification engine entry point

PURPOSE:
  Engine turns a raw ledger and a member config into a full qualification
  history: primary cycles, secondary windows, the normalized ledger the
  cycles slice into, and whatever warnings normalization produced.

KEY CONCEPTS:
  - Degradation over failure: malformed months are skipped, duplicate
    months merged, broken starting balances repaired. Each repair
    surfaces as a Warning on the Result instead of an error. The only
    errors are programmer errors: an invalid Ruleset is rejected at
    construction.
  - Purity: Compute never mutates its inputs and always returns the same
    Result for the same inputs. The ledger is copied once; cycles hold
    views into that copy.

USAGE:
  engine, err := qualification.NewEngine(qualification.DefaultRuleset())
  if err != nil { ... }
  res := engine.Compute(entries, qualification.Config{
      CycleStart:   qualification.NewMonth(2024, time.March),
      StartingTier: qualification.TierSilver,
  })
  active, _ := qualification.FindActiveCycle(res.Cycles, time.Now())

SEE ALSO:
  - builder.go, secondary.go: the walks Compute runs
  - cache.go: a memoizing wrapper for repeated Compute calls
*/
package qualification

import "sort"

// Engine computes qualification histories under a fixed ruleset.
type Engine struct {
	rules Ruleset
}

// NewEngine validates the ruleset and returns an engine bound to it.
func NewEngine(rules Ruleset) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Engine{rules: rules}, nil
}

// Rules returns the ruleset the engine computes under.
func (e *Engine) Rules() Ruleset { return e.rules }

// Result is everything one Compute call produced. Cycles and
// SecondaryCycles hold views into Entries; none of the three may be
// mutated by callers.
type Result struct {
	Cycles          []Cycle
	SecondaryCycles []SecondaryCycle
	Entries         []LedgerEntry
	Warnings        []Warning

	rules Ruleset
}

// Compute builds the full qualification history for one member.
func (e *Engine) Compute(entries []LedgerEntry, cfg Config) Result {
	res := Result{rules: e.rules}

	cfg, warns := normalizeConfig(e.rules, cfg)
	res.Warnings = warns

	norm, warns := normalizeEntries(entries, &cfg)
	res.Warnings = append(res.Warnings, warns...)
	res.Entries = norm

	if cfg.CycleStart.IsZero() {
		return res
	}

	pcfg := cfg
	pcfg.StartingTier = e.rules.primaryRung(cfg.StartingTier)
	res.Cycles = buildCycles(e.rules, norm, pcfg)
	res.SecondaryCycles = buildSecondary(e.rules, norm, cfg, res.Cycles)
	return res
}

// normalizeConfig repairs a member config in place of rejecting it.
func normalizeConfig(rules Ruleset, cfg Config) (Config, []Warning) {
	var warns []Warning

	if cfg.StartingTier == "" {
		cfg.StartingTier = rules.BaseTier()
	} else if _, ok := ParseTier(string(cfg.StartingTier)); !ok {
		warns = append(warns, warnf(WarnConfigDefaulted, Month{}, "unknown starting tier %q, using %s", cfg.StartingTier, rules.BaseTier()))
		cfg.StartingTier = rules.BaseTier()
	}

	// Starting balances come from outside the rollover machinery, so the
	// rollover cap does not apply to them. Only clearly broken values are
	// repaired.
	cfg.StartingXP.Unit = UnitXP
	cfg.StartingUXP.Unit = UnitUXP
	if cfg.StartingXP.IsNegative() {
		warns = append(warns, warnf(WarnConfigDefaulted, Month{}, "negative starting balance %s, using 0", cfg.StartingXP))
		cfg.StartingXP = NewPointsFromInt(0, UnitXP)
	}

	if cfg.StartingUXP.IsNegative() {
		warns = append(warns, warnf(WarnConfigDefaulted, Month{}, "negative secondary starting balance %s, using 0", cfg.StartingUXP))
		cfg.StartingUXP = NewPointsFromInt(0, UnitUXP)
	} else if cfg.StartingUXP.GreaterThan(rules.SecondaryTrackingLimit) {
		warns = append(warns, warnf(WarnConfigDefaulted, Month{}, "secondary starting balance %s above tracking limit, clamping to %s", cfg.StartingUXP, rules.SecondaryTrackingLimit))
		cfg.StartingUXP = rules.SecondaryTrackingLimit
	}

	switch cfg.SecondaryMode {
	case "":
		cfg.SecondaryMode = SecondaryFollowsPrimary
	case SecondaryFollowsPrimary, SecondaryCalendarYear:
	default:
		warns = append(warns, warnf(WarnConfigDefaulted, Month{}, "unknown secondary mode %q, using %s", cfg.SecondaryMode, SecondaryFollowsPrimary))
		cfg.SecondaryMode = SecondaryFollowsPrimary
	}

	return cfg, warns
}

// normalizeEntries copies, repairs, and orders the ledger. When the config
// carries no cycle start it is defaulted to the earliest surviving month.
func normalizeEntries(entries []LedgerEntry, cfg *Config) ([]LedgerEntry, []Warning) {
	var warns []Warning

	norm := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Month.IsZero() {
			warns = append(warns, warnf(WarnMalformedMonth, Month{}, "entry with no month key skipped"))
			continue
		}
		if e.SecondaryPoints.GreaterThan(e.ActualPoints) {
			warns = append(warns, warnf(WarnSecondaryExcess, e.Month, "secondary points %s exceed actual %s", e.SecondaryPoints, e.ActualPoints))
		}
		norm = append(norm, e)
	}

	sort.SliceStable(norm, func(i, j int) bool { return norm[i].Month.Before(norm[j].Month) })

	merged := norm[:0]
	for _, e := range norm {
		if n := len(merged); n > 0 && merged[n-1].Month.Equal(e.Month) {
			warns = append(warns, warnf(WarnDuplicateMonth, e.Month, "duplicate month merged"))
			prev := &merged[n-1]
			prev.ActualPoints = prev.ActualPoints.Add(e.ActualPoints)
			prev.ScheduledPoints = prev.ScheduledPoints.Add(e.ScheduledPoints)
			prev.SecondaryPoints = prev.SecondaryPoints.Add(e.SecondaryPoints)
			prev.Correction = prev.Correction.Add(e.Correction)
			continue
		}
		merged = append(merged, e)
	}
	norm = merged

	if cfg.CycleStart.IsZero() {
		if len(norm) == 0 {
			warns = append(warns, warnf(WarnConfigDefaulted, Month{}, "no cycle start and no ledger entries, nothing to compute"))
			return nil, warns
		}
		cfg.CycleStart = norm[0].Month
		warns = append(warns, warnf(WarnConfigDefaulted, cfg.CycleStart, "cycle start defaulted to earliest ledger month"))
	}

	kept := norm[:0]
	for _, e := range norm {
		if e.Month.Before(cfg.CycleStart) {
			warns = append(warns, warnf(WarnEntryBeforeStart, e.Month, "entry before cycle start dropped"))
			continue
		}
		kept = append(kept, e)
	}
	return kept, warns
}
