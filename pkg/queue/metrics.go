package queue

// MetricsRecorder defines metrics hooks for queue operations.
type MetricsRecorder interface {
	RecordQueueSent(queue string)
	RecordQueueReceived(queue string, discarded int)
}

type nopMetrics struct{}

func (nopMetrics) RecordQueueSent(queue string)                    {}
func (nopMetrics) RecordQueueReceived(queue string, discarded int) {}
