package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ovenline/ovenline/internal/observability"
	"github.com/ovenline/ovenline/pkg/session"
)

var metricsAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the store in the foreground",
	Long: `Run the store in the foreground: reconcile the session counter, start the
periodic cleanup sweeper and expose Prometheus metrics until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "metrics listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	if _, err := a.sessions.ReconcileCounter(ctx); err != nil {
		return fmt.Errorf("failed to reconcile session counter: %w", err)
	}

	sweeper := session.NewSweeper(a.sessions, a.cfg.Session.CleanupSchedule, log.Logger)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer func() {
		if err := sweeper.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop sweeper")
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	log.Info().
		Str("metricsAddr", metricsAddr).
		Str("cleanupSchedule", a.cfg.Session.CleanupSchedule).
		Msg("Ovenline serving")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
