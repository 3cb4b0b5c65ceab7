package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"

	"github.com/Mathesquivel/veleitoral-api/internal/config"
	"github.com/Mathesquivel/veleitoral-api/internal/probe"
)

const probeName = "postgres"

// dbConn abstracts the pgxpool.Pool methods used by the store so that tests
// can inject a fake without standing up a real database.
type dbConn interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// Store wraps a pgx connection pool and exposes the vote tables.
type Store struct {
	db dbConn
	cb *gobreaker.CircuitBreaker
}

// New opens a pgx pool against the configured Postgres server and verifies
// connectivity with a ping. A failed connection is fatal to the caller —
// the service cannot serve anything without its database.
func New(ctx context.Context, cfg config.PostgresConfig, cb *gobreaker.CircuitBreaker) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn(cfg, "postgres"))
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Store{db: pool, cb: cb}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.db.Close()
}

// Probe pings the server and verifies the section_votes table exists, i.e.
// that migrations have run. The check is wrapped in the circuit breaker so
// persistent failures trip it after three consecutive errors.
func (s *Store) Probe(ctx context.Context) probe.Result {
	start := time.Now()

	_, err := s.cb.Execute(func() (any, error) {
		if err := s.db.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}

		var exists int
		row := s.db.QueryRow(ctx,
			"SELECT 1 FROM information_schema.tables WHERE table_schema='public' AND table_name='section_votes'",
		)
		if err := row.Scan(&exists); err != nil {
			return nil, fmt.Errorf("section_votes table not found: %w", err)
		}
		return nil, nil
	})

	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return probe.Result{
			Name:      probeName,
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return probe.Result{
		Name:      probeName,
		OK:        true,
		LatencyMs: latency,
	}
}

// dsn builds a connection URL for cfg with the given scheme. The scheme
// varies between pgx ("postgres") and golang-migrate's pgx driver ("pgx5").
func dsn(cfg config.PostgresConfig, scheme string) string {
	return fmt.Sprintf(
		"%s://%s:%s@%s:%d/%s?sslmode=%s",
		scheme, cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DB, cfg.SSLMode,
	)
}
