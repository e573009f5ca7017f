// Package crossing drives traffic through a signal: vehicles that gate on
// WaitForGreen and a reporter that samples the signal's phase.
package crossing

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/goclaw/trafficlight/pkg/light"
	"github.com/goclaw/trafficlight/pkg/logger"
)

// Signal is the part of a traffic signal that crossing traffic uses.
type Signal interface {
	ID() string
	CurrentPhase() light.Phase
	WaitForGreen()
}

// MetricsRecorder defines metrics hooks for crossing traffic.
type MetricsRecorder interface {
	RecordCrossing(signal string)
	RecordStaleRead(signal string)
}

type nopMetrics struct{}

func (nopMetrics) RecordCrossing(string)  {}
func (nopMetrics) RecordStaleRead(string) {}

// DefaultCrossTime is how long a vehicle spends in the intersection.
const DefaultCrossTime = 500 * time.Millisecond

// Vehicle repeatedly approaches a signal, waits for green and crosses.
type Vehicle struct {
	id        string
	signal    Signal
	crossTime time.Duration
	log       logger.Logger
	metrics   MetricsRecorder

	crossings  atomic.Int64
	staleReads atomic.Int64
}

// VehicleOption configures a Vehicle.
type VehicleOption func(*Vehicle)

// WithVehicleID sets the vehicle identifier.
func WithVehicleID(id string) VehicleOption {
	return func(v *Vehicle) {
		if id != "" {
			v.id = id
		}
	}
}

// WithCrossTime sets the time a vehicle spends crossing.
func WithCrossTime(d time.Duration) VehicleOption {
	return func(v *Vehicle) {
		if d >= 0 {
			v.crossTime = d
		}
	}
}

// WithVehicleLogger sets the logger.
func WithVehicleLogger(log logger.Logger) VehicleOption {
	return func(v *Vehicle) {
		if log != nil {
			v.log = log
		}
	}
}

// WithVehicleMetrics sets the metrics recorder.
func WithVehicleMetrics(m MetricsRecorder) VehicleOption {
	return func(v *Vehicle) {
		if m != nil {
			v.metrics = m
		}
	}
}

// NewVehicle creates a vehicle approaching sig.
func NewVehicle(sig Signal, opts ...VehicleOption) *Vehicle {
	v := &Vehicle{
		id:        "vehicle-" + uuid.NewString()[:8],
		signal:    sig,
		crossTime: DefaultCrossTime,
		log:       logger.Global(),
		metrics:   nopMetrics{},
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.With("component", "vehicle", "vehicle", v.id, "signal", sig.ID())
	return v
}

// ID returns the vehicle identifier.
func (v *Vehicle) ID() string {
	return v.id
}

// Crossings returns how many times the vehicle has crossed.
func (v *Vehicle) Crossings() int64 {
	return v.crossings.Load()
}

// StaleReads returns how many times CurrentPhase lagged behind a GO the
// vehicle had already received.
func (v *Vehicle) StaleReads() int64 {
	return v.staleReads.Load()
}

// Cross waits for green once and crosses.
func (v *Vehicle) Cross() {
	v.log.Debug("waiting at signal")
	v.signal.WaitForGreen()

	if phase := v.signal.CurrentPhase(); phase != light.PhaseGo {
		v.staleReads.Add(1)
		v.metrics.RecordStaleRead(v.signal.ID())
		v.log.Warn("phase read lagged behind green", "phase", phase.String())
	}

	if v.crossTime > 0 {
		time.Sleep(v.crossTime)
	}
	n := v.crossings.Add(1)
	v.metrics.RecordCrossing(v.signal.ID())
	v.log.Info("vehicle crossed", "crossings", n)
}

// Drive crosses forever. WaitForGreen has no cancellation point, so Drive
// never returns; run it detached.
func (v *Vehicle) Drive() {
	for {
		v.Cross()
	}
}
