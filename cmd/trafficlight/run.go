package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goclaw/trafficlight/config"
	"github.com/goclaw/trafficlight/pkg/crossing"
	"github.com/goclaw/trafficlight/pkg/lifecycle"
	"github.com/goclaw/trafficlight/pkg/light"
	"github.com/goclaw/trafficlight/pkg/logger"
	"github.com/goclaw/trafficlight/pkg/metrics"
	"github.com/goclaw/trafficlight/pkg/telemetry/tracing"
	"github.com/goclaw/trafficlight/pkg/version"
)

// run loads configuration, starts the signal with its traffic and blocks until
// ctx is cancelled or a tracked task fails.
func run(ctx context.Context, configPath string, overrides map[string]interface{}) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(configPath, overrides)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := newLogger(cfg)
	logger.SetGlobal(log)
	defer log.Close()

	log.Info("Starting trafficlight",
		"version", version.Version,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)
	log.Debug("Configuration loaded", "config", cfg.String())

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics.Enabled
	metricsCfg.Port = cfg.Metrics.Port
	metricsCfg.Path = cfg.Metrics.Path
	metricsManager := metrics.NewManager(metricsCfg)

	sig, err := newSignal(cfg, log, metricsManager)
	if err != nil {
		_ = shutdownTracing(ctx)
		return err
	}

	owner := lifecycle.New(ctx, lifecycle.WithLogger(log))

	if metricsManager.Enabled() {
		log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		owner.Spawn("metrics", func(ctx context.Context) error {
			return metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
		})
	}

	sig.Start(owner)

	reporter := crossing.NewReporter(sig, cfg.Crossing.ReportRate, log)
	owner.Spawn("reporter", reporter.Run)

	for i := 0; i < cfg.Crossing.Vehicles; i++ {
		v := crossing.NewVehicle(sig,
			crossing.WithVehicleID(fmt.Sprintf("vehicle-%d", i+1)),
			crossing.WithCrossTime(cfg.Crossing.CrossTime),
			crossing.WithVehicleLogger(log),
			crossing.WithVehicleMetrics(metricsManager),
		)
		// Vehicles block in WaitForGreen, which has no cancellation point.
		owner.Detach(v.ID(), v.Drive)
	}

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, loader, config.WithWatcherLogger(log))
		if err != nil {
			return fmt.Errorf("create config watcher: %w", err)
		}
		defer watcher.Stop()

		var mu sync.Mutex
		current := config.ExtractHotReloadable(cfg)
		watcher.OnChange(func(next *config.Config) {
			mu.Lock()
			defer mu.Unlock()

			hot := config.ExtractHotReloadable(next)
			if !current.Changed(hot) {
				return
			}
			if hot.LogLevel != current.LogLevel && !next.App.Debug {
				log.SetLevel(logger.ParseLevel(hot.LogLevel))
			}
			reporter.SetRate(hot.ReportRate)
			log.Info("Applied configuration change", "log_level", hot.LogLevel, "report_rate", hot.ReportRate)
			current = hot
		})
		owner.Spawn("config-watcher", watcher.Watch)
	}

	log.Info("trafficlight is running",
		"signal", sig.ID(),
		"vehicles", cfg.Crossing.Vehicles,
		"unit", cfg.Signal.Unit,
		"dwell", cfg.Signal.Dwell,
	)

	<-owner.Context().Done()
	log.Info("Shutting down")
	owner.Stop()

	joinCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
	defer cancel()

	runErr := owner.JoinAll(joinCtx)
	if errors.Is(runErr, lifecycle.ErrDetached) {
		log.Warn("Shutdown timed out", "error", runErr)
		runErr = nil
	}

	if err := shutdownTracing(joinCtx); err != nil {
		log.Error("Error shutting down tracing", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	log.Info("trafficlight stopped", "detached", len(owner.Detached()))
	return nil
}

func newLogger(cfg *config.Config) logger.Logger {
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug {
		logCfg.Level = logger.DebugLevel
	}
	return logger.New(logCfg)
}

func newSignal(cfg *config.Config, log logger.Logger, m light.MetricsRecorder) (*light.Signal, error) {
	dwell, err := light.ParseDwell(cfg.Signal.Dwell)
	if err != nil {
		return nil, err
	}
	return light.New(
		light.WithID(cfg.Signal.ID),
		light.WithUnit(cfg.Signal.Unit),
		light.WithCycle(light.RandomCycle(cfg.Signal.MinCycle, cfg.Signal.MaxCycle)),
		light.WithYield(cfg.Signal.Yield),
		light.WithSendDelay(cfg.Signal.SendDelay),
		light.WithDwell(dwell),
		light.WithLogger(log),
		light.WithMetrics(m),
	), nil
}
