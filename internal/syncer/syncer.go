package syncer

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"meal-attendance-backend/internal/model"
	"meal-attendance-backend/internal/queue"
	"meal-attendance-backend/internal/reconcile"
)

// Applier is the slice of the reconciler the syncer needs.
type Applier interface {
	Apply(ctx context.Context, soldierID, name string, meal model.MealType, at time.Time) (reconcile.Outcome, *model.SoldierAttendance, error)
}

// Notifier receives a human-readable notice after a sync pass. May be nil.
type Notifier interface {
	Notify(title, body string)
}

// Report summarizes one sync pass. Accepted and created scans count as
// succeeded; business rejections and store errors count as failed.
type Report struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Syncer drains the local pending-scan queue through the reconciler. At most
// one pass runs at a time; a pass requested while another is in flight is a
// no-op.
type Syncer struct {
	queue    *queue.Queue
	applier  Applier
	notifier Notifier
	syncing  atomic.Bool
}

// New creates a syncer. notifier may be nil.
func New(q *queue.Queue, a Applier, n Notifier) *Syncer {
	return &Syncer{queue: q, applier: a, notifier: n}
}

// Running reports whether a sync pass is currently in flight.
func (s *Syncer) Running() bool {
	return s.syncing.Load()
}

// SyncAll sequentially reconciles every queued scan in queue order. Entries
// that reach a terminal outcome are removed individually, so a partial
// failure never causes already-applied scans to be replayed on the next
// pass; only entries that failed on a store error stay queued for retry.
// The second return is false when another pass was already in flight.
func (s *Syncer) SyncAll(ctx context.Context) (Report, bool) {
	if !s.syncing.CompareAndSwap(false, true) {
		return Report{}, false
	}
	defer s.syncing.Store(false)

	var report Report

	scans, err := s.queue.Pending(ctx)
	if err != nil {
		log.Printf("Sync pass aborted: %v", err)
		return report, true
	}
	if len(scans) == 0 {
		return report, true
	}

	log.Printf("Sync pass starting with %d pending scans", len(scans))
	for _, scan := range scans {
		outcome, _, err := s.applier.Apply(ctx, scan.SoldierID, scan.Name, scan.Meal, scan.Timestamp)
		if err != nil {
			// Transient store failure: keep the entry for the next pass.
			log.Printf("Sync: scan for %q failed: %v", scan.SoldierID, err)
			report.Failed++
			continue
		}

		if outcome.Applied() {
			report.Succeeded++
		} else {
			// Duplicate or cap rejection is terminal: retrying can never
			// change the answer, so the entry is still removed below.
			log.Printf("Sync: scan for %q rejected: %s", scan.SoldierID, outcome)
			report.Failed++
		}

		if err := s.queue.Remove(ctx, scan.ID); err != nil {
			log.Printf("Sync: failed to remove queue entry %d: %v", scan.ID, err)
		}
	}

	log.Printf("Sync pass finished: %d succeeded, %d failed", report.Succeeded, report.Failed)
	if s.notifier != nil {
		if report.Failed == 0 {
			s.notifier.Notify("Sync complete", fmt.Sprintf("%d scans synced", report.Succeeded))
		} else {
			s.notifier.Notify("Sync finished with failures",
				fmt.Sprintf("succeeded: %d, failed: %d", report.Succeeded, report.Failed))
		}
	}
	return report, true
}
