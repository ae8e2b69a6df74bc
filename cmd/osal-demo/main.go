// Command osal-demo runs a small sensor pipeline on top of the OSAL:
// producer and consumer tasks joined by a message queue, a monitor task
// gated by a binary semaphore, and a periodic status timer.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	osal "github.com/hq-platform/go-osal"
	"github.com/hq-platform/go-osal/internal/logging"
)

func main() {
	var (
		configPath  string
		duration    time.Duration
		metricsAddr string
		verbose     bool
	)

	root := &cobra.Command{
		Use:           "osal-demo",
		Short:         "Sensor pipeline demo on the OSAL primitives",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				cfg.Metrics.Listen = metricsAddr
			}
			if verbose {
				cfg.Log.Level = "debug"
			}
			return run(cfg, duration)
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	root.Flags().DurationVarP(&duration, "duration", "d", 0, "run time (0 = until interrupted)")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus listen address (e.g. :9090)")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg Config, duration time.Duration) error {
	osal.SetLogLevel(logging.ParseLevel(cfg.Log.Level))

	if cfg.Metrics.Listen != "" {
		serveMetrics(cfg.Metrics.Listen)
		osal.LogInfof("metrics on %s/metrics", cfg.Metrics.Listen)
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return fmt.Errorf("pipeline setup: %w", err)
	}
	if err := p.start(); err != nil {
		return fmt.Errorf("pipeline start: %w", err)
	}
	osal.LogInfof("pipeline running (queue capacity %d, producer period %d ms)",
		cfg.Queue.Capacity, cfg.Producer.PeriodMS)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	if duration > 0 {
		select {
		case <-time.After(duration):
		case <-sig:
		}
	} else {
		<-sig
	}

	osal.LogInfof("shutting down")
	p.stop()

	s := osal.DefaultMetrics().Snapshot()
	osal.LogInfof("final: sends=%d receives=%d timer_fires=%d", s.QueueSends, s.QueueReceives, s.TimerFires)
	return nil
}
