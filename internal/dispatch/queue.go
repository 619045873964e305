// Package dispatch provides the serialized notification queue used to run
// observer callbacks off the threads that detect state changes.
package dispatch

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/keysender/keysender/pkg/logger"
)

// Stats is a snapshot of the queue counters.
type Stats struct {
	Enqueued  uint64
	Processed uint64
	Panicked  uint64
	Dropped   uint64
}

// Queue runs zero-argument callbacks one at a time, in the order they were
// added, on a single dedicated worker goroutine.
type Queue struct {
	log logger.Logger

	mu      sync.Mutex
	pending []func()
	closed  bool

	wake chan struct{}
	done chan struct{}

	enqueued  atomic.Uint64
	processed atomic.Uint64
	panicked  atomic.Uint64
	dropped   atomic.Uint64
}

// NewQueue creates a queue and starts its worker.
func NewQueue(log logger.Logger) *Queue {
	if log == nil {
		log = logger.NewNopLogger()
	}
	q := &Queue{
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.worker()
	return q
}

// Add appends fn to the queue and returns immediately. The queue is
// unbounded so Add never blocks. Callbacks added after Close are dropped.
func (q *Queue) Add(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.dropped.Add(1)
		q.log.Warning("dispatch: queue closed, callback dropped")
		return
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	q.enqueued.Add(1)

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting callbacks and waits until everything queued so far
// has run, or until ctx is done.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the current counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued:  q.enqueued.Load(),
		Processed: q.processed.Load(),
		Panicked:  q.panicked.Load(),
		Dropped:   q.dropped.Load(),
	}
}

func (q *Queue) worker() {
	defer close(q.done)
	for {
		batch, closed := q.take()
		for _, fn := range batch {
			q.run(fn)
		}
		if len(batch) == 0 {
			if closed {
				return
			}
			<-q.wake
		}
	}
}

// take swaps out the pending slice so callbacks run without holding mu.
func (q *Queue) take() ([]func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch, q.closed
}

func (q *Queue) run(fn func()) {
	defer func() {
		q.processed.Add(1)
		if r := recover(); r != nil {
			q.panicked.Add(1)
			q.log.Error("dispatch: callback panicked: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}
