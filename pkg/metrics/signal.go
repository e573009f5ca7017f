package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func (m *Manager) initQueueMetrics() {
	m.queueSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_sent_total",
			Help:      "Total number of values sent to a phase queue",
		},
		[]string{"queue"},
	)

	m.queueReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_received_total",
			Help:      "Total number of values delivered by a phase queue",
		},
		[]string{"queue"},
	)

	m.queueDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_discarded_total",
			Help:      "Total number of values dropped because a newer receive cleared them",
		},
		[]string{"queue"},
	)

	m.registry.MustRegister(m.queueSent)
	m.registry.MustRegister(m.queueReceived)
	m.registry.MustRegister(m.queueDiscarded)
}

func (m *Manager) initSignalMetrics(cfg Config) {
	m.transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Total number of phase transitions by phase entered",
		},
		[]string{"signal", "phase"},
	)

	m.currentPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signal_green",
			Help:      "1 while the signal is in the GO phase, 0 while stopped",
		},
		[]string{"signal"},
	)

	m.cycleLength = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle_length_seconds",
			Help:      "Half-cycle length chosen when the timer loop started",
		},
		[]string{"signal"},
	)

	m.greenWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "green_wait_seconds",
			Help:      "Time spent blocked in WaitForGreen",
			Buckets:   cfg.GreenWaitBuckets,
		},
		[]string{"signal"},
	)

	m.greenSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "green_wait_skipped_total",
			Help:      "STOP values pulled and ignored while waiting for GO",
		},
		[]string{"signal"},
	)

	m.registry.MustRegister(m.transitions)
	m.registry.MustRegister(m.currentPhase)
	m.registry.MustRegister(m.cycleLength)
	m.registry.MustRegister(m.greenWait)
	m.registry.MustRegister(m.greenSkipped)
}

// RecordQueueSent records a value sent to a queue.
func (m *Manager) RecordQueueSent(queue string) {
	if !m.enabled {
		return
	}
	m.queueSent.WithLabelValues(queue).Inc()
}

// RecordQueueReceived records a receive and the values it discarded.
func (m *Manager) RecordQueueReceived(queue string, discarded int) {
	if !m.enabled {
		return
	}
	m.queueReceived.WithLabelValues(queue).Inc()
	if discarded > 0 {
		m.queueDiscarded.WithLabelValues(queue).Add(float64(discarded))
	}
}

// RecordTransition records a signal entering phase.
func (m *Manager) RecordTransition(signal string, phase string) {
	if !m.enabled {
		return
	}
	m.transitions.WithLabelValues(signal, phase).Inc()
	green := 0.0
	if phase == "go" {
		green = 1
	}
	m.currentPhase.WithLabelValues(signal).Set(green)
}

// RecordCycleLength records the half-cycle length picked by a timer loop.
func (m *Manager) RecordCycleLength(signal string, cycle time.Duration) {
	if !m.enabled {
		return
	}
	m.cycleLength.WithLabelValues(signal).Set(cycle.Seconds())
}

// RecordGreenWait records one completed WaitForGreen.
func (m *Manager) RecordGreenWait(signal string, duration time.Duration, skipped int) {
	if !m.enabled {
		return
	}
	m.greenWait.WithLabelValues(signal).Observe(duration.Seconds())
	if skipped > 0 {
		m.greenSkipped.WithLabelValues(signal).Add(float64(skipped))
	}
}
