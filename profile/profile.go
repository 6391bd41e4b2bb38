/*
Package profile converts member profile documents into engine seed state.

PURPOSE:
  Members arrive from enrollment systems as YAML or JSON documents: a
  qualification start month, a starting tier from a legacy program, seed
  balances granted by a status match. This package parses those documents
  into qualification.Config and renders them back out for storage.

WHY DOCUMENTS?
  - Operations can enroll and adjust members without code changes
  - Easy to load fixtures and demo journeys from files
  - The same schema is stored inline on the member record

SCHEMA:
  id: m-1024
  name: Ada Lovelace
  enrolled: 2024-01-15
  cycle_start: "2024-03"
  starting_tier: platinum
  starting_xp: 470
  starting_uxp: 120
  secondary_mode: follows_primary

PARSING CONTRACT:
  Structural problems fail: a document that is not YAML/JSON, or a
  cycle_start that is not a YYYY-MM month key. Semantic problems do not:
  unknown tiers, unknown secondary modes, and out-of-range balances pass
  through and the engine defaults them with a warning, so every compute
  reports them the same way regardless of where the config came from.

USAGE:
  p, err := profile.Parse(data)          // YAML or JSON
  cfg, err := p.Config()
  res, err := engine.Compute(entries, cfg)

  back := profile.FromConfig(p.ID, p.Name, cfg)

SEE ALSO:
  - qualification/types.go: Config, the parse target
  - store/sqlite: persists the rendered document on the member row
*/
package profile

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skyward/status-engine/qualification"
)

// =============================================================================
// SCHEMA
// =============================================================================

// Profile is the wire representation of a member's qualification seed.
// Zero-valued fields mean "not set" and fall back to engine defaults.
type Profile struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Enrolled is an optional RFC3339 date for the member record.
	Enrolled string `yaml:"enrolled,omitempty" json:"enrolled,omitempty"`

	// CycleStart is a YYYY-MM month key. Empty defers to the first
	// ledger month.
	CycleStart string `yaml:"cycle_start,omitempty" json:"cycle_start,omitempty"`

	// StartingTier is the lowercase tier name ("explorer" .. "ultimate").
	StartingTier string `yaml:"starting_tier,omitempty" json:"starting_tier,omitempty"`

	StartingXP  float64 `yaml:"starting_xp,omitempty" json:"starting_xp,omitempty"`
	StartingUXP float64 `yaml:"starting_uxp,omitempty" json:"starting_uxp,omitempty"`

	// SecondaryMode is "follows_primary" or "calendar_year".
	SecondaryMode string `yaml:"secondary_mode,omitempty" json:"secondary_mode,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// Parse decodes a profile document. YAML is a superset of JSON, so one
// decoder covers both formats.
func Parse(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	p.normalize()
	return p, nil
}

func (p *Profile) normalize() {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.CycleStart = strings.TrimSpace(p.CycleStart)
	p.StartingTier = strings.ToLower(strings.TrimSpace(p.StartingTier))
	p.SecondaryMode = strings.ToLower(strings.TrimSpace(p.SecondaryMode))
}

// Validate rejects profiles that cannot identify a member.
func (p Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile requires an id")
	}
	if p.Enrolled != "" {
		if _, err := p.EnrolledAt(); err != nil {
			return err
		}
	}
	if p.CycleStart != "" {
		if _, err := qualification.ParseMonth(p.CycleStart); err != nil {
			return fmt.Errorf("cycle_start %q: expected a YYYY-MM month key", p.CycleStart)
		}
	}
	return nil
}

// EnrolledAt parses the enrollment date, zero when unset.
func (p Profile) EnrolledAt() (time.Time, error) {
	if p.Enrolled == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", p.Enrolled)
	if err != nil {
		return time.Time{}, fmt.Errorf("enrolled %q: expected a YYYY-MM-DD date", p.Enrolled)
	}
	return t.UTC(), nil
}

// Config maps the profile onto engine seed state. Tier and mode strings
// pass through as-is; the engine defaults unknown values with a warning.
func (p Profile) Config() (qualification.Config, error) {
	cfg := qualification.Config{
		StartingTier:  qualification.Tier(p.StartingTier),
		StartingXP:    qualification.NewPoints(p.StartingXP, qualification.UnitXP),
		StartingUXP:   qualification.NewPoints(p.StartingUXP, qualification.UnitUXP),
		SecondaryMode: qualification.SecondaryMode(p.SecondaryMode),
	}
	if p.CycleStart != "" {
		m, err := qualification.ParseMonth(p.CycleStart)
		if err != nil {
			return qualification.Config{}, fmt.Errorf("cycle_start %q: expected a YYYY-MM month key", p.CycleStart)
		}
		cfg.CycleStart = m
	}
	return cfg, nil
}

// =============================================================================
// RENDERING
// =============================================================================

// FromConfig renders engine seed state back into the wire schema.
func FromConfig(id, name string, cfg qualification.Config) Profile {
	p := Profile{
		ID:            id,
		Name:          name,
		StartingTier:  string(cfg.StartingTier),
		SecondaryMode: string(cfg.SecondaryMode),
	}
	if !cfg.CycleStart.IsZero() {
		p.CycleStart = cfg.CycleStart.String()
	}
	if !cfg.StartingXP.IsZero() {
		p.StartingXP = cfg.StartingXP.Value.InexactFloat64()
	}
	if !cfg.StartingUXP.IsZero() {
		p.StartingUXP = cfg.StartingUXP.Value.InexactFloat64()
	}
	return p
}

// Marshal renders the profile as YAML.
func (p Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
