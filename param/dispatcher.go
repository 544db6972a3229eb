package param

import (
	"context"
	"sync/atomic"
)

// DefaultQueueSize is the Dispatcher capacity used when none is given.
const DefaultQueueSize = 1024

// change is one queued base-value notification.
type change struct {
	sig   *Signal
	value float64
}

// Dispatcher moves observer notifications off the audio goroutine.
//
// Signal.SetValueRT posts into a bounded channel without blocking; the
// control goroutine delivers the queued changes with Run or Drain. Changes
// that do not fit are dropped and counted by Dropped.
type Dispatcher struct {
	queue   chan change
	dropped atomic.Uint64
	onDrop  func() // must be real-time safe
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDropHook installs fn, called on the posting goroutine whenever a change
// is dropped. fn must not block or allocate.
func WithDropHook(fn func()) DispatcherOption {
	return func(d *Dispatcher) { d.onDrop = fn }
}

// NewDispatcher creates a Dispatcher with the given queue capacity.
// size <= 0 selects DefaultQueueSize.
func NewDispatcher(size int, opts ...DispatcherOption) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	d := &Dispatcher{queue: make(chan change, size)}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// post enqueues a change without blocking.
func (d *Dispatcher) post(s *Signal, v float64) {
	select {
	case d.queue <- change{sig: s, value: v}:
	default:
		d.dropped.Add(1)
		if d.onDrop != nil {
			d.onDrop()
		}
	}
}

// Drain delivers every queued change on the calling goroutine and returns how
// many were delivered. It does not wait for new changes.
func (d *Dispatcher) Drain() int {
	n := 0
	for {
		select {
		case c := <-d.queue:
			c.sig.notify(c.value)
			n++
		default:
			return n
		}
	}
}

// Run delivers queued changes until ctx is done, then returns ctx.Err().
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-d.queue:
			c.sig.notify(c.value)
		}
	}
}

// Pending returns the number of queued, undelivered changes.
func (d *Dispatcher) Pending() int { return len(d.queue) }

// Dropped returns how many changes were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }
