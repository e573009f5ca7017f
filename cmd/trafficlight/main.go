// Command trafficlight runs a single traffic signal with simulated vehicles
// waiting on it.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goclaw/trafficlight/pkg/version"
)

// runFlags holds the command line overrides for the run command.
type runFlags struct {
	configPath string
	logLevel   string
	debug      bool
	vehicles   int
	unit       time.Duration
	dwell      string
	metrics    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "trafficlight",
		Short:        "Traffic signal simulator",
		SilenceUsage: true,
	}

	var flags runFlags
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the signal and its traffic until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return run(ctx, flags.configPath, flags.overrides(cmd))
		},
	}

	runCmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to configuration file (yaml or json)")
	runCmd.Flags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&flags.debug, "debug", false, "enable debug mode")
	runCmd.Flags().IntVar(&flags.vehicles, "vehicles", 0, "override number of vehicles")
	runCmd.Flags().DurationVar(&flags.unit, "unit", 0, "override the signal time unit (e.g. 1s, 200ms)")
	runCmd.Flags().StringVar(&flags.dwell, "dwell", "", "override how phases are held (spin, sleep)")
	runCmd.Flags().BoolVar(&flags.metrics, "metrics", false, "serve Prometheus metrics")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	rootCmd.AddCommand(runCmd, versionCmd)
	return rootCmd
}

// overrides returns config keys for the flags the user actually set.
func (f *runFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	overrides := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("log-level") {
		overrides["log.level"] = f.logLevel
	}
	if changed("debug") {
		overrides["app.debug"] = f.debug
	}
	if changed("vehicles") {
		overrides["crossing.vehicles"] = f.vehicles
	}
	if changed("unit") {
		overrides["signal.unit"] = f.unit.String()
	}
	if changed("dwell") {
		overrides["signal.dwell"] = f.dwell
	}
	if changed("metrics") {
		overrides["metrics.enabled"] = f.metrics
	}
	return overrides
}
