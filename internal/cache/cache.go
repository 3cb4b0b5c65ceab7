package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/Mathesquivel/veleitoral-api/internal/config"
	"github.com/Mathesquivel/veleitoral-api/internal/probe"
)

const probeName = "redis"

// redisCmds is the subset of the go-redis client the cache uses. Declared
// as an interface so tests can inject a fake.
type redisCmds interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Cache is a Redis-backed response cache for the aggregate query endpoints.
// A nil *Cache is valid and behaves as a permanent miss, so callers never
// branch on whether caching is configured. Invalidation is by generation:
// Bump increments a counter that is part of every key, orphaning all
// previously written entries.
type Cache struct {
	rdb redisCmds
	cb  *gobreaker.CircuitBreaker
	ttl time.Duration
}

// generationKey holds the current cache generation counter.
const generationKey = "veleitoral:cache:gen"

// New opens a go-redis client per cfg. Returns nil when the cache is
// disabled; the nil Cache is safe to use.
func New(cfg config.RedisConfig, cb *gobreaker.CircuitBreaker) *Cache {
	if !cfg.Enabled {
		return nil
	}
	return &Cache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		cb:  cb,
		ttl: cfg.TTL,
	}
}

// Get returns the cached payload for key, or ok=false on a miss. Redis
// errors degrade to a miss; the query path must keep working when the
// cache is down.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}

	// A miss is not a failure: returning redis.Nil through the breaker
	// would trip it on three cold keys in a row.
	val, err := c.cb.Execute(func() (any, error) {
		gen, err := c.rdb.Get(ctx, generationKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		b, err := c.rdb.Get(ctx, versionedKey(gen, key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return []byte(nil), nil
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		slog.WarnContext(ctx, "cache get failed", "key", key, "error", err)
		return nil, false
	}
	b := val.([]byte)
	return b, b != nil
}

// Set stores payload under key for the configured TTL. Failures are logged
// and swallowed.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil {
		return
	}

	_, err := c.cb.Execute(func() (any, error) {
		gen, err := c.rdb.Get(ctx, generationKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, c.rdb.Set(ctx, versionedKey(gen, key), payload, c.ttl).Err()
	})
	if err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

// Bump advances the cache generation, invalidating every cached entry at
// once. Called after a successful ingest run; the orphaned entries expire
// by TTL.
func (c *Cache) Bump(ctx context.Context) {
	if c == nil {
		return
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.rdb.Incr(ctx, generationKey).Err()
	})
	if err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "error", err)
	}
}

// Probe sends a PING and validates the PONG response, wrapped in the
// circuit breaker. A nil Cache probes as healthy: the cache is not
// configured, so it cannot be broken.
func (c *Cache) Probe(ctx context.Context) probe.Result {
	if c == nil {
		return probe.Result{Name: probeName, OK: true}
	}

	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		val, err := c.rdb.Ping(ctx).Result()
		if err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		if val != "PONG" {
			return nil, fmt.Errorf("unexpected PING response: %q", val)
		}
		return nil, nil
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return probe.Result{Name: probeName, OK: false, LatencyMs: latency, Error: errMsg}
	}
	return probe.Result{Name: probeName, OK: true, LatencyMs: latency}
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func versionedKey(gen, key string) string {
	if gen == "" {
		gen = "0"
	}
	return fmt.Sprintf("veleitoral:cache:%s:%s", gen, key)
}
