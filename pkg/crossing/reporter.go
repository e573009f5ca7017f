package crossing

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/goclaw/trafficlight/pkg/light"
	"github.com/goclaw/trafficlight/pkg/logger"
)

// DefaultReportRate is the default number of phase samples per second.
const DefaultReportRate = 2.0

// Reporter samples a signal's current phase at a fixed rate and logs every
// change it observes. Samples are relaxed reads and can miss short phases.
type Reporter struct {
	signal  Signal
	limiter *rate.Limiter
	log     logger.Logger

	mu       sync.Mutex
	last     light.Phase
	observed bool
	changes  int
}

// NewReporter creates a reporter taking perSecond samples per second.
func NewReporter(sig Signal, perSecond float64, log logger.Logger) *Reporter {
	if perSecond <= 0 {
		perSecond = DefaultReportRate
	}
	if log == nil {
		log = logger.Global()
	}
	return &Reporter{
		signal:  sig,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		log:     log.With("component", "reporter", "signal", sig.ID()),
	}
}

// Run samples until ctx is cancelled. It returns nil on cancellation.
func (r *Reporter) Run(ctx context.Context) error {
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		r.sample()
	}
}

// SetRate changes the sampling rate. Non-positive rates are ignored.
func (r *Reporter) SetRate(perSecond float64) {
	if perSecond <= 0 {
		return
	}
	r.limiter.SetLimit(rate.Limit(perSecond))
}

func (r *Reporter) sample() {
	phase := r.signal.CurrentPhase()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.observed && phase == r.last {
		return
	}
	if r.observed {
		r.changes++
	}
	r.log.Info("signal phase", "phase", phase.String(), "changes", r.changes)
	r.last = phase
	r.observed = true
}

// Last returns the most recently sampled phase and whether any sample was
// taken.
func (r *Reporter) Last() (light.Phase, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.observed
}

// Changes returns the number of phase changes observed.
func (r *Reporter) Changes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changes
}
