package syncer

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Monitor probes connectivity to the remote store on an interval and drains
// the pending queue whenever connectivity returns after an outage.
type Monitor struct {
	ping     func(ctx context.Context) error
	interval time.Duration
	syncer   *Syncer
	online   atomic.Bool
}

// NewMonitor creates a connectivity monitor. ping is typically the store's
// Ping method.
func NewMonitor(ping func(ctx context.Context) error, interval time.Duration, s *Syncer) *Monitor {
	return &Monitor{ping: ping, interval: interval, syncer: s}
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Run probes until the context is cancelled. The first probe runs
// immediately so the service does not start in a stale offline state.
func (m *Monitor) Run(ctx context.Context) {
	log.Println("Starting connectivity monitor...")
	m.probe(ctx)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Connectivity monitor shutting down.")
			return
		case <-timer.C:
			m.probe(ctx)
			timer.Reset(m.interval)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := m.ping(probeCtx)
	cancel()

	was := m.online.Swap(err == nil)
	switch {
	case err != nil && was:
		log.Printf("Remote store unreachable, scans will queue locally: %v", err)
	case err == nil && !was:
		log.Println("Remote store reachable again, draining pending scans...")
		if _, ran := m.syncer.SyncAll(ctx); !ran {
			log.Println("Sync already in flight, skipping drain.")
		}
	}
}
