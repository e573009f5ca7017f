// Package queue provides the blocking hand-off channel used to publish
// signal phases to waiting goroutines.
package queue

import (
	"sync"
	"time"
)

// DefaultSendDelay throttles producers before they take the queue lock.
const DefaultSendDelay = time.Millisecond

// Coalescing is an unbounded blocking queue with at-most-one delivery per
// batch: Receive returns the oldest pending value and discards every value
// queued behind it.
//
// Send never blocks on a receiver. Each Send wakes exactly one blocked
// Receive; other receivers keep waiting for the next Send.
type Coalescing[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []T
	waiters int

	name      string
	sendDelay time.Duration
	metrics   MetricsRecorder
}

// Option configures a Coalescing queue.
type Option func(*options)

type options struct {
	name      string
	sendDelay time.Duration
	metrics   MetricsRecorder
}

// WithName sets the name used as the metrics label.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSendDelay sets the artificial delay Send performs before taking the
// lock. Zero disables it.
func WithSendDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.sendDelay = d
		}
	}
}

// WithMetrics sets the metrics recorder for the queue.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// NewCoalescing creates an empty queue.
func NewCoalescing[T any](opts ...Option) *Coalescing[T] {
	o := options{
		name:      "default",
		sendDelay: DefaultSendDelay,
		metrics:   nopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	q := &Coalescing[T]{
		name:      o.name,
		sendDelay: o.sendDelay,
		metrics:   o.metrics,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Name returns the queue name.
func (q *Coalescing[T]) Name() string {
	return q.name
}

// Send appends v and wakes one blocked receiver.
func (q *Coalescing[T]) Send(v T) {
	// Outside the critical section: throttles the producer only.
	if q.sendDelay > 0 {
		time.Sleep(q.sendDelay)
	}

	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.cond.Signal()
	q.metrics.RecordQueueSent(q.name)
}

// Receive blocks until at least one value is pending, then returns the oldest
// one and clears the queue. Values sent after the returned one and before
// this call are lost.
func (q *Coalescing[T]) Receive() T {
	q.mu.Lock()
	q.waiters++
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	q.waiters--

	v := q.items[0]
	discarded := len(q.items) - 1
	clear(q.items)
	q.items = q.items[:0]
	q.mu.Unlock()

	q.metrics.RecordQueueReceived(q.name, discarded)
	return v
}

// Len returns the number of pending values.
func (q *Coalescing[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Waiters returns the number of goroutines blocked in Receive.
func (q *Coalescing[T]) Waiters() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiters
}
