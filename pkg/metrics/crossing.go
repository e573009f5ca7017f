package metrics

import "github.com/prometheus/client_golang/prometheus"

func (m *Manager) initCrossingMetrics() {
	m.crossings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vehicle_crossings_total",
			Help:      "Total number of vehicles that crossed on green",
		},
		[]string{"signal"},
	)

	m.staleReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_phase_reads_total",
			Help:      "CurrentPhase reads right after WaitForGreen that did not report GO",
		},
		[]string{"signal"},
	)

	m.registry.MustRegister(m.crossings)
	m.registry.MustRegister(m.staleReads)
}

// RecordCrossing records a vehicle crossing.
func (m *Manager) RecordCrossing(signal string) {
	if !m.enabled {
		return
	}
	m.crossings.WithLabelValues(signal).Inc()
}

// RecordStaleRead records a relaxed phase read that lagged behind the queue.
func (m *Manager) RecordStaleRead(signal string) {
	if !m.enabled {
		return
	}
	m.staleReads.WithLabelValues(signal).Inc()
}
