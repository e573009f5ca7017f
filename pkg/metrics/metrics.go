// Package metrics provides Prometheus instrumentation for the traffic light.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trafficlight"

// Manager owns the Prometheus registry and implements the recorder
// interfaces of the queue, light and crossing packages. A disabled Manager
// accepts every call and records nothing.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	// Queue metrics
	queueSent      *prometheus.CounterVec
	queueReceived  *prometheus.CounterVec
	queueDiscarded *prometheus.CounterVec

	// Signal metrics
	transitions  *prometheus.CounterVec
	currentPhase *prometheus.GaugeVec
	cycleLength  *prometheus.GaugeVec
	greenWait    *prometheus.HistogramVec
	greenSkipped *prometheus.CounterVec

	// Crossing metrics
	crossings  *prometheus.CounterVec
	staleReads *prometheus.CounterVec
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Port    int
	Path    string

	GreenWaitBuckets []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		Port:             9091,
		Path:             "/metrics",
		GreenWaitBuckets: []float64{0.01, 0.1, 0.5, 1, 2, 4, 6, 8, 10, 15},
	}
}

// NewManager creates a new metrics manager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}
	if len(cfg.GreenWaitBuckets) == 0 {
		cfg.GreenWaitBuckets = DefaultConfig().GreenWaitBuckets
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		enabled:  true,
	}
	m.initQueueMetrics()
	m.initSignalMetrics(cfg)
	m.initCrossingMetrics()
	return m
}

// NoOpManager returns a disabled manager.
func NoOpManager() *Manager {
	return &Manager{enabled: false}
}

// Enabled returns whether metrics collection is enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Registry returns the underlying registry, or nil when disabled.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves the metrics endpoint until ctx is cancelled.
func (m *Manager) StartServer(ctx context.Context, port int, path string) error {
	if !m.enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
