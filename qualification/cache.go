/*
cache.go - memoized computation

PURPOSE:
  Compute is pure, so identical inputs always produce identical Results.
  CachedEngine exploits that: it fingerprints the ruleset, ledger, and
  config, and serves repeat computations from memory. Serving APIs
  recompute the same member's history on every request; this makes those
  requests cheap.

KEY CONCEPTS:
  - Fingerprint: a SHA-256 over a canonical rendering of the inputs.
    Exposed so stores can stamp snapshots with the inputs that produced
    them.
  - Bounded: the cache holds at most `limit` results and evicts the
    oldest. Cached Results share their slices with whatever was returned
    before; callers already must not mutate Results.

SEE ALSO:
  - engine.go: the Engine being wrapped
*/
package qualification

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// DefaultCacheLimit bounds a CachedEngine when no limit is given.
const DefaultCacheLimit = 256

// CachedEngine wraps an Engine with a bounded memo table keyed by input
// fingerprint. Safe for concurrent use.
type CachedEngine struct {
	engine *Engine
	limit  int

	mu      sync.Mutex
	results map[string]Result
	order   []string
	hits    uint64
	misses  uint64
}

// NewCachedEngine wraps engine with a memo table of at most limit entries.
// A non-positive limit falls back to DefaultCacheLimit.
func NewCachedEngine(engine *Engine, limit int) *CachedEngine {
	if limit <= 0 {
		limit = DefaultCacheLimit
	}
	return &CachedEngine{
		engine:  engine,
		limit:   limit,
		results: make(map[string]Result),
	}
}

// Rules returns the wrapped engine's ruleset.
func (c *CachedEngine) Rules() Ruleset { return c.engine.Rules() }

// Compute returns the memoized Result for these inputs, computing it on
// first sight.
func (c *CachedEngine) Compute(entries []LedgerEntry, cfg Config) Result {
	key := Fingerprint(c.engine.Rules(), entries, cfg)

	c.mu.Lock()
	if res, ok := c.results[key]; ok {
		c.hits++
		c.mu.Unlock()
		return res
	}
	c.mu.Unlock()

	res := c.engine.Compute(entries, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.results[key]; !ok {
		if len(c.order) >= c.limit {
			delete(c.results, c.order[0])
			c.order = c.order[1:]
		}
		c.results[key] = res
		c.order = append(c.order, key)
	}
	c.misses++
	return res
}

// CacheStats is a point-in-time view of the memo table.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

func (c *CachedEngine) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.results)}
}

// Reset drops every memoized result and zeroes the counters.
func (c *CachedEngine) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]Result)
	c.order = nil
	c.hits = 0
	c.misses = 0
}

// Fingerprint derives a stable content hash from everything Compute looks
// at. Equal fingerprints mean equal Results.
func Fingerprint(rules Ruleset, entries []LedgerEntry, cfg Config) string {
	h := sha256.New()

	for _, step := range rules.Ladder {
		fmt.Fprintf(h, "step|%s|%s\n", step.Tier, step.Threshold)
	}
	fmt.Fprintf(h, "rules|%d|%s|%s|%s|%s|%s\n",
		rules.CycleMonths, rules.RolloverCap,
		rules.SecondaryUnlockTier, rules.SecondaryThreshold,
		rules.SecondaryCap, rules.SecondaryTrackingLimit)

	fmt.Fprintf(h, "cfg|%s|%s|%s|%s|%s\n",
		cfg.CycleStart, cfg.StartingTier, cfg.StartingXP, cfg.StartingUXP, cfg.SecondaryMode)

	for _, e := range entries {
		fmt.Fprintf(h, "entry|%s|%s|%s|%s|%s\n",
			e.Month, e.ActualPoints, e.ScheduledPoints, e.SecondaryPoints, e.Correction)
	}

	return hex.EncodeToString(h.Sum(nil))
}
