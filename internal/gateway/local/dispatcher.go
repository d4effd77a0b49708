package local

import (
	"context"
	"sync"
)

// dispatcher fans change notifications out to subscribers. Delivery is
// non-blocking; a slow subscriber misses intermediate signals, never the
// fact that something changed.
type dispatcher struct {
	mu          sync.Mutex
	subscribers map[int64]func()
	nextID      int64
}

func newDispatcher() *dispatcher {
	return &dispatcher{subscribers: make(map[int64]func())}
}

func (d *dispatcher) subscribe(ctx context.Context, notify func()) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subscribers[id] = notify
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		delete(d.subscribers, id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return cleanup
}

func (d *dispatcher) publish() {
	d.mu.Lock()
	copies := make([]func(), 0, len(d.subscribers))
	for _, notify := range d.subscribers {
		copies = append(copies, notify)
	}
	d.mu.Unlock()
	for _, notify := range copies {
		go notify()
	}
}
