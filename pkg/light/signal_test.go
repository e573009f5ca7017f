package light

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goclaw/trafficlight/pkg/logger"
)

const testCycle = 5

// fakeHarness runs a signal's timer loop against a fake clock.
type fakeHarness struct {
	t      *testing.T
	clock  *clockwork.FakeClock
	signal *Signal
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func startFake(t *testing.T, opts ...Option) *fakeHarness {
	t.Helper()

	clock := clockwork.NewFakeClock()
	base := []Option{
		WithClock(clock),
		WithCycle(FixedCycle(testCycle)),
		WithSendDelay(0),
		WithLogger(logger.Nop()),
	}
	s := New(append(base, opts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	h := &fakeHarness{t: t, clock: clock, signal: s, ctx: ctx, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		assert.NoError(t, s.Run(ctx))
	}()
	t.Cleanup(h.stop)
	return h
}

func (h *fakeHarness) stop() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		h.t.Error("timer loop did not stop after cancel")
	}
}

func (h *fakeHarness) receive() Phase {
	h.t.Helper()
	got := make(chan Phase, 1)
	go func() { got <- h.signal.queue.Receive() }()
	select {
	case p := <-got:
		return p
	case <-time.After(2 * time.Second):
		h.t.Fatal("timeout waiting for phase")
		return PhaseStop
	}
}

// finishStop ends a STOP dwell and releases the yield pause so GO is sent.
func (h *fakeHarness) finishStop() {
	h.t.Helper()
	h.clock.Advance(testCycle * time.Second)
	ctx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
	defer cancel()
	require.NoError(h.t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(DefaultYield)
}

func (h *fakeHarness) finishGo() {
	h.clock.Advance(testCycle * time.Second)
}

func TestSignal_StartsStopped(t *testing.T) {
	s := New(WithLogger(logger.Nop()))
	assert.Equal(t, PhaseStop, s.CurrentPhase())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, DefaultUnit, s.Unit())
}

func TestSignal_Alternation(t *testing.T) {
	h := startFake(t)

	want := PhaseStop
	for i := 0; i < 8; i++ {
		require.Equal(t, want, h.receive(), "value %d", i)
		if want == PhaseStop {
			h.finishStop()
		} else {
			h.finishGo()
		}
		want = want.Next()
	}
}

func TestSignal_MinimumDwell(t *testing.T) {
	h := startFake(t)
	require.Equal(t, PhaseStop, h.receive())

	// Just short of the cycle the truncated elapsed time is still testCycle-1,
	// so the loop is spinning and has not reached the yield pause.
	h.clock.Advance(testCycle*time.Second - time.Nanosecond)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	err := h.clock.BlockUntilContext(ctx, 1)
	cancel()
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, PhaseStop, h.signal.CurrentPhase())

	h.clock.Advance(time.Nanosecond)
	ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))

	h.clock.Advance(DefaultYield)
	require.Equal(t, PhaseGo, h.receive())
}

func TestSignal_SleepDwell(t *testing.T) {
	h := startFake(t, WithDwell(DwellSleep))
	require.Equal(t, PhaseStop, h.receive())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// The dwell timer is the only waiter; advancing short of it keeps STOP.
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(testCycle*time.Second - time.Millisecond)
	assert.Equal(t, PhaseStop, h.signal.CurrentPhase())

	h.clock.Advance(time.Millisecond)
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(DefaultYield)
	require.Equal(t, PhaseGo, h.receive())
}

func TestSignal_WaitForGreen(t *testing.T) {
	h := startFake(t)
	require.Equal(t, PhaseStop, h.receive())

	returned := make(chan Phase, 1)
	go func() {
		h.signal.WaitForGreen()
		returned <- h.signal.CurrentPhase()
	}()

	// The signal is in its STOP dwell; WaitForGreen must keep waiting.
	require.Eventually(t, func() bool { return h.signal.queue.Waiters() == 1 }, 2*time.Second, time.Millisecond)
	assert.Never(t, func() bool { return len(returned) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, PhaseStop, h.signal.CurrentPhase())

	h.finishStop()

	select {
	case p := <-returned:
		assert.Equal(t, PhaseGo, p)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForGreen did not return after GO")
	}
}

func TestSignal_WaitForGreenMissesCoalescedGo(t *testing.T) {
	s := New(WithSendDelay(0), WithLogger(logger.Nop()))

	// STOP and GO queued before anyone receives: GO is discarded.
	s.queue.Send(PhaseStop)
	s.queue.Send(PhaseGo)

	returned := make(chan struct{})
	go func() {
		s.WaitForGreen()
		close(returned)
	}()

	assert.Never(t, func() bool {
		select {
		case <-returned:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)

	s.queue.Send(PhaseGo)
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("WaitForGreen did not return after second GO")
	}
}

func TestSignal_RunStopsOnCancel(t *testing.T) {
	for _, dwell := range []Dwell{DwellSpin, DwellSleep} {
		t.Run(dwell.String(), func(t *testing.T) {
			h := startFake(t, WithDwell(dwell))
			require.Equal(t, PhaseStop, h.receive())
			h.stop()
		})
	}
}

type recordingSpawner struct {
	mu    sync.Mutex
	names []string
	fns   []func(context.Context) error
}

func (r *recordingSpawner) Spawn(name string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.fns = append(r.fns, fn)
}

func TestSignal_StartUsesSpawner(t *testing.T) {
	s := New(WithID("north"), WithLogger(logger.Nop()))
	sp := &recordingSpawner{}

	s.Start(sp)

	require.Len(t, sp.fns, 1)
	assert.Equal(t, []string{"signal/north"}, sp.names)
}

type recordingMetrics struct {
	mu          sync.Mutex
	transitions []string
	cycle       time.Duration
	greenWaits  int
}

func (m *recordingMetrics) RecordQueueSent(string) {}

func (m *recordingMetrics) RecordQueueReceived(string, int) {}

func (m *recordingMetrics) RecordTransition(_ string, phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, phase)
}

func (m *recordingMetrics) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transitions)
}

func (m *recordingMetrics) RecordCycleLength(_ string, cycle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycle = cycle
}

func (m *recordingMetrics) RecordGreenWait(string, time.Duration, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.greenWaits++
}

func TestSignal_RecordsMetrics(t *testing.T) {
	m := &recordingMetrics{}
	h := startFake(t, WithMetrics(m))

	require.Equal(t, PhaseStop, h.receive())
	h.finishStop()
	require.Equal(t, PhaseGo, h.receive())

	go h.signal.WaitForGreen()
	h.finishGo()
	require.Eventually(t, func() bool { return m.count() == 3 }, 2*time.Second, time.Millisecond)
	h.finishStop()
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.greenWaits == 1
	}, 2*time.Second, time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Equal(t, []string{"stop", "go", "stop", "go"}, m.transitions)
	assert.Equal(t, testCycle*time.Second, m.cycle)
}

// Real clock, shrunken unit: the first GO arrives after one STOP dwell of
// 4 to 6 units plus the yield pause.
func TestSignal_EndToEnd(t *testing.T) {
	const unit = 20 * time.Millisecond

	for _, dwell := range []Dwell{DwellSpin, DwellSleep} {
		t.Run(dwell.String(), func(t *testing.T) {
			s := New(
				WithUnit(unit),
				WithDwell(dwell),
				WithLogger(logger.Nop()),
			)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			start := time.Now()
			go func() {
				defer close(done)
				_ = s.Run(ctx)
			}()
			defer func() {
				cancel()
				<-done
			}()

			returned := make(chan time.Duration, 1)
			go func() {
				s.WaitForGreen()
				returned <- time.Since(start)
			}()

			select {
			case elapsed := <-returned:
				assert.GreaterOrEqual(t, elapsed, DefaultMinCycle*unit)
				assert.Less(t, elapsed, (DefaultMaxCycle+1)*unit+250*time.Millisecond)
				// The GO dwell lasts several units, far longer than the gap
				// between the send and this read.
				assert.Equal(t, PhaseGo, s.CurrentPhase())
			case <-time.After(5 * time.Second):
				t.Fatal("WaitForGreen did not return")
			}
		})
	}
}
