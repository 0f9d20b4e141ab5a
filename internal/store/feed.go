package store

import "sync"

// feed is a small in-process fan-out of row change events. Slow consumers
// drop events rather than block mutations; consumers that need a complete
// picture reload from the store.
type feed struct {
	mu   sync.Mutex
	next int
	subs map[int]chan ChangeEvent
}

func newFeed() *feed {
	return &feed{subs: make(map[int]chan ChangeEvent)}
}

func (f *feed) subscribe(buf int) (<-chan ChangeEvent, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan ChangeEvent, buf)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *feed) broadcast(ev ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
