package light

import (
	"time"

	"github.com/goclaw/trafficlight/pkg/queue"
)

// MetricsRecorder defines metrics hooks for signal operations. It embeds the
// queue recorder so one implementation covers the phase queue as well.
type MetricsRecorder interface {
	queue.MetricsRecorder

	RecordTransition(signal string, phase string)
	RecordCycleLength(signal string, cycle time.Duration)
	RecordGreenWait(signal string, duration time.Duration, skipped int)
}

type nopMetrics struct{}

func (nopMetrics) RecordQueueSent(string)                     {}
func (nopMetrics) RecordQueueReceived(string, int)            {}
func (nopMetrics) RecordTransition(string, string)            {}
func (nopMetrics) RecordCycleLength(string, time.Duration)    {}
func (nopMetrics) RecordGreenWait(string, time.Duration, int) {}
