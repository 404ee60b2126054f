package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/aduba/internal/domain/reading"
	"github.com/yanqian/aduba/internal/domain/refresh"
	"github.com/yanqian/aduba/pkg/metrics"
)

var (
	watchInterval    time.Duration
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the dashboard and simulate a reading every interval",
	Long: `watch loads the latest stored reading, then simulates and stores a new
one every interval until interrupted.`,
	RunE: runWatch,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate and store one reading",
	RunE:  runSimulate,
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent stored reading",
	RunE:  runLatest,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", refresh.DefaultInterval, "time between simulated readings")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve cycle metrics on this address, e.g. :9100")
	rootCmd.AddCommand(watchCmd, simulateCmd, latestCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	if _, err := requireUser(e); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var renderMu sync.Mutex
	opts := []refresh.Option{
		refresh.WithObserver(func(s refresh.State) {
			renderMu.Lock()
			defer renderMu.Unlock()
			renderState(out, s)
		}),
	}
	if watchMetricsAddr != "" {
		reg := metrics.NewRegistry()
		opts = append(opts, refresh.WithMetrics(metrics.NewCycle(reg.Registerer())))
		srv := &http.Server{Addr: watchMetricsAddr, Handler: reg.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	cycle := newCycle(cmd.Context(), e, watchInterval, opts...)
	cycle.Activate(cmd.Context())
	<-ctx.Done()
	cycle.Deactivate()
	fmt.Fprintln(out, "\nstopped")
	return nil
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	if _, err := requireUser(e); err != nil {
		return err
	}
	cycle := newCycle(cmd.Context(), e, 0)
	r, ok := cycle.Simulate(cmd.Context())
	if !ok {
		return errors.New("no signed-in user")
	}
	renderReading(cmd.OutOrStdout(), r)
	return nil
}

func runLatest(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	s, err := requireUser(e)
	if err != nil {
		return err
	}
	r, found, err := e.client.FindLatest(cmd.Context(), s.ID)
	if err != nil {
		return fmt.Errorf("failed to load readings: %w", err)
	}
	if !found {
		fmt.Fprintln(cmd.OutOrStdout(), "No readings stored yet")
		return nil
	}
	renderReading(cmd.OutOrStdout(), r)
	return nil
}

// newCycle builds a refresh cycle against the backend. Simulated readings are
// stamped with the account's device when the profile can be read.
func newCycle(ctx context.Context, e *env, interval time.Duration, opts ...refresh.Option) *refresh.Cycle {
	deviceID := reading.DefaultDeviceID
	if profile, err := e.client.Profile(ctx); err != nil {
		e.logger.Warn("profile unavailable, using default device", "error", err)
	} else if profile.DeviceID != "" {
		deviceID = profile.DeviceID
	}
	cfg := refresh.Config{
		Interval:         interval,
		FallbackDeviceID: reading.FallbackDeviceID,
		DeviceID:         deviceID,
	}
	return refresh.New(cfg, e.holder, e.client, reading.NewGenerator(nil), e.logger, opts...)
}
