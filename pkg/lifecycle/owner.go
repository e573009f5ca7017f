// Package lifecycle owns the goroutines started on behalf of other
// components and reclaims them at shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/goclaw/trafficlight/pkg/logger"
)

var (
	// ErrDetached is returned by JoinAll when its context ends before every
	// tracked task has returned. The remaining tasks keep running unowned.
	ErrDetached = errors.New("lifecycle: tasks detached")

	// ErrTaskPanicked wraps a panic recovered from a spawned task.
	ErrTaskPanicked = errors.New("lifecycle: task panicked")
)

// Owner tracks spawned tasks. Tracked tasks share a context that is cancelled
// by Stop or by the first task returning an error.
type Owner struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	log    logger.Logger

	mu       sync.Mutex
	tasks    []string
	detached []string
	running  atomic.Int32
}

// Option configures an Owner.
type Option func(*Owner)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Owner) {
		if log != nil {
			o.log = log
		}
	}
}

// New creates an Owner whose tasks run under a context derived from parent.
func New(parent context.Context, opts ...Option) *Owner {
	ctx, cancel := context.WithCancel(parent)
	group, gctx := errgroup.WithContext(ctx)

	o := &Owner{
		ctx:    gctx,
		cancel: cancel,
		group:  group,
		log:    logger.Global(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With("component", "lifecycle")
	return o
}

// Context returns the context shared by tracked tasks.
func (o *Owner) Context() context.Context {
	return o.ctx
}

// Spawn runs fn in a tracked goroutine. A returned error or a panic cancels
// the shared context and is reported by JoinAll.
func (o *Owner) Spawn(name string, fn func(ctx context.Context) error) {
	o.mu.Lock()
	o.tasks = append(o.tasks, name)
	o.mu.Unlock()

	o.running.Add(1)
	o.group.Go(func() (err error) {
		defer o.running.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("task panicked", "task", name, "panic", r, "stack", string(debug.Stack()))
				err = fmt.Errorf("%w: %s: %v", ErrTaskPanicked, name, r)
			}
		}()

		o.log.Debug("task started", "task", name)
		err = fn(o.ctx)
		if err != nil {
			o.log.Error("task failed", "task", name, "error", err)
			return fmt.Errorf("task %s: %w", name, err)
		}
		o.log.Debug("task finished", "task", name)
		return nil
	})
}

// Detach runs fn in a goroutine the owner never joins. Use it for work that
// blocks without a cancellation point. Panics are logged and swallowed.
func (o *Owner) Detach(name string, fn func()) {
	o.mu.Lock()
	o.detached = append(o.detached, name)
	o.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("detached task panicked", "task", name, "panic", r)
			}
		}()
		fn()
	}()
}

// Tasks returns the names of tracked tasks in spawn order.
func (o *Owner) Tasks() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.tasks...)
}

// Detached returns the names of detached tasks.
func (o *Owner) Detached() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.detached...)
}

// Running returns the number of tracked tasks that have not returned.
func (o *Owner) Running() int {
	return int(o.running.Load())
}

// Stop cancels the shared context. It does not wait.
func (o *Owner) Stop() {
	o.cancel()
}

// JoinAll waits for every tracked task to return and reports the first task
// error. If ctx ends first it returns ErrDetached.
func (o *Owner) JoinAll(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- o.group.Wait()
	}()

	select {
	case err := <-done:
		o.cancel()
		return err
	case <-ctx.Done():
		running := o.Running()
		o.log.Warn("giving up on running tasks", "running", running, "error", ctx.Err())
		return fmt.Errorf("%w: %d still running: %w", ErrDetached, running, ctx.Err())
	}
}
