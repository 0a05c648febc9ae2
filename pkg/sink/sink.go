// Package sink forwards monitor snapshots to external systems.
package sink

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/itohio/restroom/pkg/monitor"
)

// DefaultQueueSize is the number of snapshots buffered by a Fanout.
const DefaultQueueSize = 32

// Sink publishes snapshots to one destination.
type Sink interface {
	Name() string
	Publish(ctx context.Context, s monitor.Snapshot) error
	Close() error
}

// Fanout delivers snapshots to every sink from its own goroutine so slow
// destinations never block the polling loop.
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
	queue   chan monitor.Snapshot

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewFanout starts delivering to sinks. Each publish is bounded by timeout.
func NewFanout(timeout time.Duration, sinks ...Sink) *Fanout {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	f := &Fanout{
		sinks:   sinks,
		timeout: timeout,
		queue:   make(chan monitor.Snapshot, DefaultQueueSize),
		done:    make(chan struct{}),
	}
	go f.run()
	return f
}

// Enqueue schedules s for delivery. Snapshots are dropped when the queue is
// full or the fanout is closed.
func (f *Fanout) Enqueue(s monitor.Snapshot) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return
	}
	select {
	case f.queue <- s:
	default:
		log.Printf("sink: queue full, dropping snapshot %s", s.Timestamp.Format(time.RFC3339))
	}
}

// Close drains the queue and closes every sink.
func (f *Fanout) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()

	<-f.done

	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			log.Printf("sink: close %s: %v", s.Name(), err)
		}
	}
	return nil
}

func (f *Fanout) run() {
	defer close(f.done)
	for snap := range f.queue {
		for _, s := range f.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
			if err := s.Publish(ctx, snap); err != nil {
				log.Printf("sink: publish to %s: %v", s.Name(), err)
			}
			cancel()
		}
	}
}
