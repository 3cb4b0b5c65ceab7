package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mathesquivel/veleitoral-api/internal/api"
	"github.com/Mathesquivel/veleitoral-api/internal/cache"
	"github.com/Mathesquivel/veleitoral-api/internal/config"
	"github.com/Mathesquivel/veleitoral-api/internal/ingest"
	"github.com/Mathesquivel/veleitoral-api/internal/store"
	"github.com/Mathesquivel/veleitoral-api/internal/telemetry"
)

// AppContext holds all constructed application dependencies shared across
// subcommands. It is built once in PersistentPreRunE and referenced by
// server.go and ingest.go.
type AppContext struct {
	cfg          *config.Config
	otelProvider *telemetry.Provider
	db           *store.Store
	queryCache   *cache.Cache
	coordinator  *ingest.Coordinator
	router       *api.Router
}

// buildAppContext constructs all application dependencies from cfg:
//  1. Initialises the OTEL provider (best-effort, non-fatal)
//  2. Applies pending schema migrations and opens the Postgres pool — a
//     failure here is fatal, the service cannot run without its database
//  3. Opens the optional Redis query cache
//  4. Creates the ingestor and its coordinator
//  5. Creates the HTTP router
func buildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{cfg: cfg}

	// OTEL is best-effort: a missing collector must never block startup.
	if cfg.Telemetry.OTLPEndpoint == "" {
		slog.Info("OTEL telemetry disabled (no endpoint configured)")
	} else {
		tp, err := telemetry.InitProvider(
			ctx,
			cfg.Telemetry.OTLPEndpoint,
			cfg.Telemetry.ServiceName,
			cfg.Telemetry.OTLPInsecure,
		)
		if err != nil {
			slog.Warn("OTEL provider init failed — telemetry disabled", "err", err)
		} else {
			app.otelProvider = tp
		}
	}

	if err := store.Migrate(cfg.Postgres); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	db, err := store.New(ctx, cfg.Postgres, store.NewCircuitBreaker("postgres"))
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	app.db = db

	app.queryCache = cache.New(cfg.Redis, store.NewCircuitBreaker("redis"))

	ingestor := ingest.NewIngestor(db, cfg.Ingest.BatchSize)
	app.coordinator = ingest.NewCoordinator(ingestor, db, cfg.Ingest.DataDir, cfg.Ingest.Workers)
	app.coordinator.OnComplete = app.queryCache.Bump

	handler := api.NewHandler(db, app.coordinator, cfg.Ingest.DataDir, db, app.queryCache)
	app.router = api.NewRouter(handler, app.queryCache)

	return app, nil
}

// close releases the app's long-lived resources, in reverse build order.
func (a *AppContext) close(ctx context.Context) {
	if a.queryCache != nil {
		if err := a.queryCache.Close(); err != nil {
			slog.Warn("closing redis client", "err", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.otelProvider != nil {
		if err := a.otelProvider.Shutdown(ctx); err != nil {
			slog.Warn("OTEL shutdown error", "err", err)
		}
	}
}
