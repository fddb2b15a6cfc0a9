package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyerfyer/fyer-pool/spawner"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "spawner",
		Short: "Drive a pooled random-location spawner",
		Long: `spawner runs a fixed-timestep loop that borrows pooled scene nodes and
places them at random locations, recycling the oldest node once the pool is saturated.`,
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spawner v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "spawner.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := spawner.SaveConfig(path, sampleConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	})

	opts := &runOptions{}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the spawn loop",
		Long: `Run the spawn loop until interrupted or until --frames frames have been simulated.
Flags that are set explicitly override values from the configuration file.

Example:
  spawner run --config spawner.yaml --watch --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	runCmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Path to YAML configuration file (optional)")
	runCmd.Flags().IntVarP(&opts.instances, "instances", "n", 1, "Number of pre-allocated instances")
	runCmd.Flags().Float64VarP(&opts.speed, "speed", "s", 1.0, "Spawns per second")
	runCmd.Flags().IntVar(&opts.frames, "frames", 0, "Stop after this many frames, 0 runs until interrupted")
	runCmd.Flags().IntVar(&opts.fps, "fps", 60, "Simulated frames per second")
	runCmd.Flags().BoolVar(&opts.realtime, "realtime", true, "Pace frames with wall-clock time")
	runCmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	runCmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&opts.watch, "watch", false, "Reload the configuration file when it changes")
	runCmd.Flags().BoolVar(&opts.accessLog, "access-log", false, "Log every pool event")
	runCmd.Flags().Float64Var(&opts.traceRate, "trace-rate", 0, "Fraction of pool events traced to stderr, 0 disables")
	runCmd.Flags().DurationVar(&opts.statsInterval, "stats-interval", 5*time.Second, "Interval between pool stats log lines, 0 disables")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
