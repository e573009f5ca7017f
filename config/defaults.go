package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "trafficlight",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Signal: SignalConfig{
			Unit:      time.Second,
			MinCycle:  4,
			MaxCycle:  6,
			Yield:     time.Millisecond,
			SendDelay: time.Millisecond,
			Dwell:     "spin",
		},
		Crossing: CrossingConfig{
			Vehicles:   3,
			CrossTime:  500 * time.Millisecond,
			ReportRate: 2,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "otlpgrpc",
			Endpoint:   "localhost:4317",
			Timeout:    5 * time.Second,
			Sampler:    "ratio",
			SampleRate: 0.1,
		},
		Shutdown: ShutdownConfig{
			Timeout: 5 * time.Second,
		},
	}
}
