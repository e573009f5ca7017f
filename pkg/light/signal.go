// Package light implements a single traffic signal: a two-phase state machine
// driven by a background timer loop that publishes every transition on a
// coalescing queue.
//
// The signal owns no goroutines. Start hands the timer loop to a Spawner,
// which is responsible for reclaiming it; cancelling the context passed to
// Run is the only way the loop ever returns.
package light

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/goclaw/trafficlight/pkg/logger"
	"github.com/goclaw/trafficlight/pkg/queue"
)

const tracerName = "github.com/goclaw/trafficlight/pkg/light"

// Spawner runs a named task on behalf of its caller and owns its lifetime.
type Spawner interface {
	Spawn(name string, fn func(ctx context.Context) error)
}

// Signal is a traffic light alternating STOP and GO on a timer.
type Signal struct {
	id string

	// phase is written only by the timer loop. Reads are relaxed: a reader
	// may see the previous phase while a transition is in flight.
	phase atomic.Int32
	queue *queue.Coalescing[Phase]

	clock     clockwork.Clock
	unit      time.Duration
	cycle     CycleFunc
	yield     time.Duration
	sendDelay time.Duration
	dwell     Dwell

	log     logger.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
}

// New creates a signal in the STOP phase. The timer loop is not running until
// Start or Run is called.
func New(opts ...Option) *Signal {
	s := &Signal{
		id:        uuid.NewString(),
		clock:     clockwork.NewRealClock(),
		unit:      DefaultUnit,
		cycle:     RandomCycle(DefaultMinCycle, DefaultMaxCycle),
		yield:     DefaultYield,
		sendDelay: DefaultSendDelay,
		dwell:     DwellSpin,
		log:       logger.Global(),
		metrics:   nopMetrics{},
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.With("component", "signal", "signal", s.id)
	s.queue = queue.NewCoalescing[Phase](
		queue.WithName(s.id),
		queue.WithSendDelay(s.sendDelay),
		queue.WithMetrics(s.metrics),
	)
	return s
}

// ID returns the signal identifier.
func (s *Signal) ID() string {
	return s.id
}

// Unit returns the length of one time unit.
func (s *Signal) Unit() time.Duration {
	return s.unit
}

// CurrentPhase returns the phase most recently set by the timer loop. The
// read is not ordered against the loop's write, so it may be stale; use it
// for diagnostics only.
func (s *Signal) CurrentPhase() Phase {
	return Phase(s.phase.Load())
}

// Start hands the timer loop to sp. Calling Start twice runs two uncoordinated
// loops against the same signal.
func (s *Signal) Start(sp Spawner) {
	sp.Spawn("signal/"+s.id, s.Run)
}

// WaitForGreen blocks until a GO phase is pulled from the signal's queue.
// STOP values are discarded. Because the queue coalesces, a GO that was
// queued behind a STOP is lost and the caller waits for the next one.
func (s *Signal) WaitForGreen() {
	_, span := s.tracer.Start(context.Background(), "signal.wait_for_green",
		trace.WithAttributes(attribute.String("signal.id", s.id)))
	defer span.End()

	start := s.clock.Now()
	skipped := 0
	for s.queue.Receive() != PhaseGo {
		skipped++
	}

	waited := s.clock.Since(start)
	span.SetAttributes(attribute.Int("signal.skipped", skipped))
	s.metrics.RecordGreenWait(s.id, waited, skipped)
	s.log.Debug("green observed", "waited", waited, "skipped", skipped)
}

// Run is the timer loop. It picks a cycle length once, then alternates STOP
// and GO forever, holding each phase for that many whole units. It returns
// nil when ctx is cancelled.
func (s *Signal) Run(ctx context.Context) error {
	cycle := s.cycle()
	s.metrics.RecordCycleLength(s.id, time.Duration(cycle)*s.unit)
	s.log.InfoContext(ctx, "signal cycling",
		"cycle_units", cycle,
		"unit", s.unit,
		"dwell", s.dwell.String(),
	)

	for {
		if !s.hold(ctx, PhaseStop, cycle) {
			break
		}
		if !s.sleep(ctx, s.yield) {
			break
		}
		if !s.hold(ctx, PhaseGo, cycle) {
			break
		}
	}

	s.log.InfoContext(ctx, "signal stopped", "phase", s.CurrentPhase().String())
	return nil
}

// hold publishes p and waits out one half-cycle. It reports false if ctx was
// cancelled first.
func (s *Signal) hold(ctx context.Context, p Phase, cycle int) bool {
	start := s.clock.Now()

	spanCtx, span := s.tracer.Start(ctx, "signal.phase", trace.WithAttributes(
		attribute.String("signal.id", s.id),
		attribute.String("signal.phase", p.String()),
		attribute.Int("signal.cycle_units", cycle),
	))
	defer span.End()

	s.phase.Store(int32(p))
	s.metrics.RecordTransition(s.id, p.String())
	s.log.DebugContext(spanCtx, "phase changed", "phase", p.String())
	s.queue.Send(p)

	if s.dwell == DwellSleep {
		return s.sleepUntil(ctx, start, cycle)
	}
	return s.spinUntil(ctx, start, cycle)
}

// elapsedUnits truncates the time since start to whole units.
func (s *Signal) elapsedUnits(start time.Time) int64 {
	return int64(s.clock.Since(start) / s.unit)
}

func (s *Signal) spinUntil(ctx context.Context, start time.Time, cycle int) bool {
	done := ctx.Done()
	for s.elapsedUnits(start) < int64(cycle) {
		select {
		case <-done:
			return false
		default:
		}
		runtime.Gosched()
	}
	return true
}

func (s *Signal) sleepUntil(ctx context.Context, start time.Time, cycle int) bool {
	target := time.Duration(cycle) * s.unit
	for s.elapsedUnits(start) < int64(cycle) {
		if !s.sleep(ctx, target-s.clock.Since(start)) {
			return false
		}
	}
	return true
}

func (s *Signal) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}
