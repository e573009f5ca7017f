package light

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"

	"github.com/goclaw/trafficlight/pkg/logger"
)

// Dwell selects how the timer loop waits out a half-cycle.
type Dwell int

const (
	// DwellSpin busy-polls the clock. It keeps a processor busy for the whole
	// half-cycle.
	DwellSpin Dwell = iota
	// DwellSleep parks the timer goroutine on a clock timer.
	DwellSleep
)

// String returns the string representation of the dwell strategy.
func (d Dwell) String() string {
	switch d {
	case DwellSpin:
		return "spin"
	case DwellSleep:
		return "sleep"
	default:
		return "unknown"
	}
}

// ParseDwell parses a dwell strategy name.
func ParseDwell(s string) (Dwell, error) {
	switch s {
	case "spin", "":
		return DwellSpin, nil
	case "sleep":
		return DwellSleep, nil
	default:
		return DwellSpin, fmt.Errorf("unknown dwell strategy %q", s)
	}
}

// Defaults for the timer loop.
const (
	DefaultUnit      = time.Second
	DefaultYield     = time.Millisecond
	DefaultSendDelay = time.Millisecond
)

// Option is a functional option for configuring a Signal.
type Option func(*Signal)

// WithID sets the signal identifier used in logs, metrics and spans.
func WithID(id string) Option {
	return func(s *Signal) {
		if id != "" {
			s.id = id
		}
	}
}

// WithClock sets the time source used by the timer loop.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Signal) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithUnit sets the length of one time unit. Elapsed time is truncated to
// whole units before it is compared against the cycle length.
func WithUnit(unit time.Duration) Option {
	return func(s *Signal) {
		if unit > 0 {
			s.unit = unit
		}
	}
}

// WithCycle sets the cycle length source.
func WithCycle(fn CycleFunc) Option {
	return func(s *Signal) {
		if fn != nil {
			s.cycle = fn
		}
	}
}

// WithYield sets the pause between the end of a STOP dwell and the GO
// transition.
func WithYield(d time.Duration) Option {
	return func(s *Signal) {
		if d >= 0 {
			s.yield = d
		}
	}
}

// WithSendDelay sets the artificial delay of the phase queue's Send.
func WithSendDelay(d time.Duration) Option {
	return func(s *Signal) {
		if d >= 0 {
			s.sendDelay = d
		}
	}
}

// WithDwell sets the dwell strategy.
func WithDwell(d Dwell) Option {
	return func(s *Signal) {
		s.dwell = d
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Signal) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics recorder for the signal and its queue.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Signal) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the tracer used for half-cycle and wait spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Signal) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}
