package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the V-Eleitoral HTTP API server",
	Long: `Start the HTTP server on the configured host and port (default
0.0.0.0:8080; the PORT environment variable overrides the port).

When ingest.on_start is enabled (the default), a full reload of the data
directory runs in the background after the server comes up: the vote
tables are cleared and every CSV bulletin is re-ingested. The server
shuts down cleanly on SIGTERM or SIGINT.`,
	RunE: runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.close(shutCtx)
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// The startup ingest runs in the background so the port is bound and the
	// liveness probe answers while the bulletins load.
	if cfg.Ingest.OnStart {
		go func() {
			if _, err := app.coordinator.Run(ctx, true); err != nil { //nolint:contextcheck
				slog.Error("startup ingest failed", "err", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("veleitoral server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped cleanly")
	return nil
}
