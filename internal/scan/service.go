package scan

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"meal-attendance-backend/internal/mealwindow"
	"meal-attendance-backend/internal/model"
	"meal-attendance-backend/internal/parse"
	"meal-attendance-backend/internal/queue"
	"meal-attendance-backend/internal/reconcile"
	"meal-attendance-backend/internal/syncer"
)

// Status is the terminal disposition of one scan attempt. Every status maps
// to exactly one user-facing notification.
type Status string

const (
	StatusCreated       Status = "created"
	StatusAccepted      Status = "accepted"
	StatusDuplicate     Status = "duplicate_meal"
	StatusCapReached    Status = "cap_reached"
	StatusQueuedOffline Status = "queued_offline"
	StatusNoActiveMeal  Status = "no_active_meal"
	StatusBadPayload    Status = "bad_payload"
	StatusStoreError    Status = "store_error"
	// StatusIgnored: the same payload was decoded again within the debounce
	// window; the reader fired twice on one badge.
	StatusIgnored Status = "ignored"
)

// Result is what the checkpoint UI shows for one scan attempt.
type Result struct {
	Status  Status         `json:"status"`
	Soldier string         `json:"soldier,omitempty"`
	Meal    model.MealType `json:"meal,omitempty"`
	Total   int            `json:"total_meals,omitempty"`
	Message string         `json:"message"`
}

// Service is the scan intake pipeline: trim, debounce, parse, resolve the
// meal window, then either reconcile against the remote store or queue
// locally. One scan is processed to completion at a time.
type Service struct {
	rec      syncer.Applier
	queue    *queue.Queue
	online   func() bool
	debounce time.Duration

	mu          sync.Mutex
	lastPayload string
	lastSeen    time.Time
}

// NewService creates the scan intake service. online reports current
// connectivity to the remote store.
func NewService(rec syncer.Applier, q *queue.Queue, online func() bool, debounce time.Duration) *Service {
	return &Service{rec: rec, queue: q, online: online, debounce: debounce}
}

// Process handles one decoded QR payload captured at the given time.
func (s *Service) Process(ctx context.Context, raw string, now time.Time) Result {
	trimmed := strings.TrimSpace(raw)

	if s.debounced(trimmed, now) {
		return Result{Status: StatusIgnored, Message: "Duplicate read ignored"}
	}

	identity, err := parse.ParseBadge(trimmed)
	if err != nil {
		log.Printf("Scan rejected, bad payload: %v", err)
		return Result{Status: StatusBadPayload, Message: "Badge QR code is not in the expected format"}
	}

	meal, active := mealwindow.Current(now)
	if !active {
		// Outside every window the scan is dropped, not queued, even when
		// offline: it could never be accepted on replay either.
		return Result{
			Status:  StatusNoActiveMeal,
			Soldier: identity.Name,
			Message: "No meal window is active right now",
		}
	}

	if !s.online() {
		pending := &model.PendingScan{
			SoldierID: identity.SoldierID,
			Name:      identity.Name,
			Meal:      meal,
			Timestamp: now,
		}
		if err := s.queue.Enqueue(ctx, pending); err != nil {
			log.Printf("Failed to queue offline scan for %q: %v", identity.SoldierID, err)
			return Result{
				Status:  StatusStoreError,
				Soldier: identity.Name,
				Meal:    meal,
				Message: "Could not save the scan locally",
			}
		}
		return Result{
			Status:  StatusQueuedOffline,
			Soldier: identity.Name,
			Meal:    meal,
			Message: fmt.Sprintf("Offline: %s saved for sync (%s)", identity.Name, meal.Label()),
		}
	}

	outcome, row, err := s.rec.Apply(ctx, identity.SoldierID, identity.Name, meal, now)
	if err != nil {
		log.Printf("Scan for %q failed at the store: %v", identity.SoldierID, err)
		return Result{
			Status:  StatusStoreError,
			Soldier: identity.Name,
			Meal:    meal,
			Message: "Store error, please try again",
		}
	}

	total := 0
	if row != nil {
		total = row.TotalMeals
	}

	switch outcome {
	case reconcile.Created:
		return Result{
			Status: StatusCreated, Soldier: identity.Name, Meal: meal, Total: total,
			Message: fmt.Sprintf("%s registered for %s", identity.Name, meal.Label()),
		}
	case reconcile.Accepted:
		return Result{
			Status: StatusAccepted, Soldier: identity.Name, Meal: meal, Total: total,
			Message: fmt.Sprintf("%s - %s (%d/3)", identity.Name, meal.Label(), total),
		}
	case reconcile.DuplicateMeal:
		return Result{
			Status: StatusDuplicate, Soldier: identity.Name, Meal: meal, Total: total,
			Message: fmt.Sprintf("%s already had %s", identity.Name, meal.Label()),
		}
	default:
		return Result{
			Status: StatusCapReached, Soldier: identity.Name, Meal: meal, Total: total,
			Message: fmt.Sprintf("%s reached the daily limit (3/3)", identity.Name),
		}
	}
}

// debounced reports whether the payload repeats the previous one within the
// debounce window, and records the sighting otherwise.
func (s *Service) debounced(payload string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payload == s.lastPayload && now.Sub(s.lastSeen) < s.debounce {
		return true
	}
	s.lastPayload = payload
	s.lastSeen = now
	return false
}
