package dashboard

import (
	"context"
	"log"
	"sort"
	"sync"

	"meal-attendance-backend/internal/model"
	"meal-attendance-backend/internal/store"
)

// Projection is the in-memory roster view behind the dashboard. It is primed
// once from a store snapshot and then patched row-by-row from the change
// feed; a change event never forces a full reload.
type Projection struct {
	store store.Store

	mu     sync.RWMutex
	rows   map[string]model.SoldierAttendance
	primed bool
}

// New creates an unprimed projection over the given store.
func New(s store.Store) *Projection {
	return &Projection{store: s, rows: make(map[string]model.SoldierAttendance)}
}

// Ready reports whether the projection has been primed from the store.
func (p *Projection) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.primed
}

// Run subscribes to the change feed, primes the projection, and applies
// events until the context is cancelled. Subscribing before priming means a
// mutation landing mid-load is observed either in the snapshot or as an
// event, never missed.
func (p *Projection) Run(ctx context.Context) {
	events, cancel := p.store.Subscribe(64)
	defer cancel()

	if err := p.prime(ctx); err != nil {
		log.Printf("Projection priming failed, serving from the store until retry: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.Apply(ev)
		}
	}
}

func (p *Projection) prime(ctx context.Context) error {
	rows, err := p.store.List(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, row := range rows {
		// An event applied during the load is fresher than the snapshot.
		if existing, ok := p.rows[row.SoldierID]; ok && existing.LastScan.After(row.LastScan) {
			continue
		}
		p.rows[row.SoldierID] = row
	}
	p.primed = true
	return nil
}

// Apply patches the projection with one change event.
func (p *Projection) Apply(ev store.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Kind {
	case store.ChangeInsert, store.ChangeUpdate:
		p.rows[ev.Row.SoldierID] = ev.Row
	case store.ChangeReset:
		p.rows = make(map[string]model.SoldierAttendance)
	}
}

// Snapshot returns the current roster ordered by most recent scan first.
func (p *Projection) Snapshot() []model.SoldierAttendance {
	p.mu.RLock()
	out := make([]model.SoldierAttendance, 0, len(p.rows))
	for _, row := range p.rows {
		out = append(out, row)
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastScan.After(out[j].LastScan)
	})
	return out
}
