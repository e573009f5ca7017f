// Package config provides configuration management for trafficlight.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for trafficlight.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Signal configures the traffic signal state machine.
	Signal SignalConfig `mapstructure:"signal"`

	// Crossing configures the simulated traffic at the signal.
	Crossing CrossingConfig `mapstructure:"crossing"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`

	// Shutdown controls how long the process waits for its tasks on exit.
	Shutdown ShutdownConfig `mapstructure:"shutdown"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"env"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, discard, or file path).
	Output string `mapstructure:"output"`
}

// SignalConfig holds the signal timing settings.
type SignalConfig struct {
	// ID names the signal in logs and metrics. Empty generates one.
	ID string `mapstructure:"id"`

	// Unit is the duration of one time unit. Cycle lengths are counted in units.
	Unit time.Duration `mapstructure:"unit" validate:"gt=0"`

	// MinCycle is the shortest phase dwell, in units.
	MinCycle int `mapstructure:"min_cycle" validate:"min=1"`

	// MaxCycle is the longest phase dwell, in units.
	MaxCycle int `mapstructure:"max_cycle" validate:"gtefield=MinCycle"`

	// Yield is the pause between the STOP and GO phases.
	Yield time.Duration `mapstructure:"yield" validate:"gte=0"`

	// SendDelay is the delay applied to every phase publication.
	SendDelay time.Duration `mapstructure:"send_delay" validate:"gte=0"`

	// Dwell selects how a phase is held: spin or sleep.
	Dwell string `mapstructure:"dwell" validate:"oneof=spin sleep"`
}

// CrossingConfig holds the simulated traffic settings.
type CrossingConfig struct {
	// Vehicles is the number of vehicles driving through the signal.
	Vehicles int `mapstructure:"vehicles" validate:"min=0"`

	// CrossTime is how long a vehicle spends in the intersection.
	CrossTime time.Duration `mapstructure:"cross_time" validate:"gte=0"`

	// ReportRate is the number of phase samples per second the reporter takes.
	ReportRate float64 `mapstructure:"report_rate" validate:"gt=0"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter kind.
	Exporter string `mapstructure:"exporter" validate:"omitempty,oneof=otlpgrpc"`

	// Endpoint is the collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Timeout bounds each export call.
	Timeout time.Duration `mapstructure:"timeout"`

	// Headers are sent with every export request.
	Headers map[string]string `mapstructure:"headers"`

	// Sampler is always_on, always_off or ratio.
	Sampler string `mapstructure:"sampler" validate:"omitempty,oneof=always_on always_off ratio"`

	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// ShutdownConfig holds shutdown settings.
type ShutdownConfig struct {
	// Timeout is how long to wait for tasks before detaching them.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Env: %s, Cycle: %d-%d x %s, Dwell: %s}",
		c.App.Name, c.App.Environment, c.Signal.MinCycle, c.Signal.MaxCycle,
		c.Signal.Unit, c.Signal.Dwell)
}
