package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const metricsShutdownTimeout = 5 * time.Second

// newWorkerCmd creates the worker command: recover interrupted jobs from
// the store, then run the worker pool until interrupted.
func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background calculation worker pool",
		Long: "Recovers jobs that were mid-flight when the previous process " +
			"stopped, then consumes the queue until interrupted.",
		RunE: runWorker,
	}
	cmd.Flags().String("metrics-listen", "", "address for the Prometheus /metrics endpoint (overrides config)")
	return cmd
}

func runWorker(cmd *cobra.Command, _ []string) error {
	a, err := appFromCommand(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.close(); closeErr != nil {
			a.log.Warn().Err(closeErr).Msg("shutdown error")
		}
	}()

	mgr := a.svc.JobManager()
	if mgr == nil {
		return errors.New("job queue is disabled: no store configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mgr.Recover(ctx); err != nil {
		return fmt.Errorf("recovering interrupted jobs: %w", err)
	}

	listen, _ := cmd.Flags().GetString("metrics-listen")
	if listen == "" {
		listen = a.cfg.Metrics.Listen
	}
	var metricsSrv *http.Server
	if listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		metricsSrv = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.log.Info().Str("addr", listen).Msg("metrics endpoint listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	a.log.Info().Int("workers", a.cfg.Jobs.Workers).Msg("worker pool started")
	runErr := mgr.Run(ctx)
	mgr.Close()

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	a.log.Info().Msg("worker pool stopped")
	return nil
}
