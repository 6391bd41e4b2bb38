/*
scheduler.go - Periodic status recompute

PURPOSE:
  Recomputes every member's standing on a cron schedule and stores the
  result as a snapshot. Snapshots give offline consumers (the CLI, ops
  queries) a current status without hitting the compute path, and the
  run doubles as an early-warning sweep: members whose cycle ends within
  60 days while their balance is still below the requalification
  threshold get a log line before the boundary settles.

DESIGN:
  - Runs on a cron spec (default: hourly on the hour)
  - Recomputes from the ledger, never from previous snapshots
  - Skips members whose snapshot fingerprint still matches the ledger
  - Logs a warning for each member at risk of a soft landing

CONFIGURATION:
  - Spec: cron expression (e.g. "0 * * * *")
  - Disabled schedulers (empty spec) never start

USAGE:
  sched := NewRecomputeScheduler(store, handler, "0 * * * *")
  if err := sched.Start(); err != nil { ... }
  // ... later
  sched.Stop()

SEE ALSO:
  - handlers.go: the compute path being reused
  - store/sqlite/sqlite.go: SnapshotRecord storage
*/
package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/skyward/status-engine/qualification"
	"github.com/skyward/status-engine/store/sqlite"
)

// RecomputeScheduler refreshes member status snapshots on a schedule.
type RecomputeScheduler struct {
	Store   *sqlite.Store
	Handler *Handler
	Spec    string

	cron *cron.Cron
	log  *logrus.Entry
	mu   sync.Mutex
}

// NewRecomputeScheduler creates a scheduler. An empty spec disables it.
func NewRecomputeScheduler(store *sqlite.Store, handler *Handler, spec string) *RecomputeScheduler {
	return &RecomputeScheduler{
		Store:   store,
		Handler: handler,
		Spec:    spec,
		log:     logrus.WithField("component", "scheduler"),
	}
}

// Start registers the cron job and runs one sweep immediately.
func (rs *RecomputeScheduler) Start() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.Spec == "" {
		rs.log.Info("disabled, not starting")
		return nil
	}

	rs.cron = cron.New()
	if _, err := rs.cron.AddFunc(rs.Spec, rs.RunNow); err != nil {
		return err
	}
	rs.cron.Start()

	rs.log.WithField("spec", rs.Spec).Info("started")

	// First sweep right away so snapshots exist before the first tick.
	go rs.RunNow()

	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (rs *RecomputeScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.cron != nil {
		<-rs.cron.Stop().Done()
		rs.log.Info("stopped")
	}
}

// RunNow performs one sweep over all members.
func (rs *RecomputeScheduler) RunNow() {
	ctx := context.Background()
	now := time.Now().UTC()

	members, err := rs.Store.ListMembers(ctx)
	if err != nil {
		rs.log.WithError(err).Error("listing members")
		return
	}

	refreshed := 0
	skipped := 0

	for i := range members {
		m := &members[i]

		ok, err := rs.refreshMember(ctx, m, now)
		if err != nil {
			rs.log.WithError(err).WithField("member", m.ID).Error("refreshing snapshot")
			continue
		}
		if ok {
			refreshed++
		} else {
			skipped++
		}
	}

	if refreshed > 0 || skipped > 0 {
		rs.log.WithFields(logrus.Fields{
			"refreshed": refreshed,
			"skipped":   skipped,
		}).Info("sweep complete")
	}
}

// refreshMember recomputes one member's snapshot. Returns false when the
// stored snapshot already matches the ledger fingerprint.
func (rs *RecomputeScheduler) refreshMember(ctx context.Context, m *sqlite.Member, now time.Time) (bool, error) {
	cfg, entries, err := rs.Handler.loadInputs(ctx, m, now)
	if err != nil {
		return false, err
	}

	hash := qualification.Fingerprint(rs.Handler.Engine.Rules(), entries, cfg)

	existing, err := rs.Store.GetSnapshot(ctx, m.ID)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.LedgerHash == hash {
		return false, nil
	}

	res := rs.Handler.Engine.Compute(entries, cfg)
	rs.warnApproachingBoundary(m.ID, res, now)

	statusJSON, err := json.Marshal(rs.Handler.toStatusDTO(m.ID, now, res))
	if err != nil {
		return false, err
	}

	err = rs.Store.SaveSnapshot(ctx, sqlite.SnapshotRecord{
		MemberID:   m.ID,
		ComputedAt: now,
		LedgerHash: hash,
		StatusJSON: string(statusJSON),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// warnApproachingBoundary logs members whose active cycle ends within 60
// days while their balance is still short of the requalification step.
// Within one cycle the carry equals ActualPoints, so the comparison reads
// straight off the cycle. Promotion cycles clear the step by construction.
func (rs *RecomputeScheduler) warnApproachingBoundary(memberID string, res qualification.Result, now time.Time) {
	c, err := qualification.FindActiveCycle(res.Cycles, now)
	if err != nil || !c.Contains(now) {
		return
	}
	if c.EndDate.Sub(now) > 60*24*time.Hour {
		return
	}

	step := rs.Handler.Engine.Rules().Threshold(c.StartingTier)
	if c.ActualPoints.GreaterThanOrEqual(step) {
		return
	}

	rs.log.WithFields(logrus.Fields{
		"member":    memberID,
		"cycle_end": c.EndDate.Format("2006-01-02"),
		"tier":      string(c.StartingTier),
		"balance":   c.ActualPoints.String(),
		"needed":    step.Sub(c.ActualPoints).String(),
	}).Warn("cycle settles below requalification")
}

// NextRun returns when the next scheduled sweep will fire, or the zero
// time when the scheduler is not running.
func (rs *RecomputeScheduler) NextRun() time.Time {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.cron == nil {
		return time.Time{}
	}
	for _, e := range rs.cron.Entries() {
		return e.Next
	}
	return time.Time{}
}
