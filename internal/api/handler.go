package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"meal-attendance-backend/internal/dashboard"
	"meal-attendance-backend/internal/queue"
	"meal-attendance-backend/internal/reset"
	"meal-attendance-backend/internal/scan"
	"meal-attendance-backend/internal/store"
	"meal-attendance-backend/internal/syncer"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	scans      *scan.Service
	queue      *queue.Queue
	syncer     *syncer.Syncer
	monitor    *syncer.Monitor
	resets     *reset.Controller
	projection *dashboard.Projection
	webpush    *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(
	s store.Store,
	scans *scan.Service,
	q *queue.Queue,
	sync *syncer.Syncer,
	monitor *syncer.Monitor,
	resets *reset.Controller,
	projection *dashboard.Projection,
	webpushOptions *webpush.Options,
) *Handler {
	return &Handler{
		store:      s,
		scans:      scans,
		queue:      q,
		syncer:     sync,
		monitor:    monitor,
		resets:     resets,
		projection: projection,
		webpush:    webpushOptions,
	}
}
