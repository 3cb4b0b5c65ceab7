package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mathesquivel/veleitoral-api/internal/config"
	"github.com/Mathesquivel/veleitoral-api/internal/store"
)

// fakeRedis implements redisCmds over an in-memory map.
type fakeRedis struct {
	data    map[string]string
	counter map[string]int64
	err     error
	pong    string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		data:    make(map[string]string),
		counter: make(map[string]int64),
		pong:    "PONG",
	}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	if n, ok := f.counter[key]; ok {
		return redis.NewStringResult(string(rune('0'+n)), nil)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counter[key]++
	return redis.NewIntResult(f.counter[key], nil)
}

func (f *fakeRedis) Ping(_ context.Context) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	return redis.NewStatusResult(f.pong, nil)
}

func (f *fakeRedis) Close() error { return nil }

func newTestCache(rdb redisCmds) *Cache {
	return &Cache{
		rdb: rdb,
		cb:  store.NewCircuitBreaker("redis-test"),
		ttl: time.Minute,
	}
}

func TestCache_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCache(newFakeRedis())
	ctx := context.Background()

	_, ok := c.Get(ctx, "totals?year=2024")
	assert.False(t, ok)

	c.Set(ctx, "totals?year=2024", []byte(`[{"votes":10}]`))

	got, ok := c.Get(ctx, "totals?year=2024")
	require.True(t, ok)
	assert.Equal(t, `[{"votes":10}]`, string(got))
}

func TestCache_BumpInvalidates(t *testing.T) {
	t.Parallel()

	c := newTestCache(newFakeRedis())
	ctx := context.Background()

	c.Set(ctx, "totals", []byte("old"))
	c.Bump(ctx)

	_, ok := c.Get(ctx, "totals")
	assert.False(t, ok, "entries written before Bump must not be served")

	c.Set(ctx, "totals", []byte("new"))
	got, ok := c.Get(ctx, "totals")
	require.True(t, ok)
	assert.Equal(t, "new", string(got))
}

func TestCache_ErrorsDegradeToMiss(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	c := newTestCache(rdb)
	ctx := context.Background()

	c.Set(ctx, "totals", []byte("x"))
	_, ok := c.Get(ctx, "totals")
	assert.False(t, ok)
}

func TestCache_MissesDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	c := newTestCache(newFakeRedis())
	ctx := context.Background()

	for range 5 {
		_, ok := c.Get(ctx, "cold")
		assert.False(t, ok)
	}

	c.Set(ctx, "cold", []byte("x"))
	_, ok := c.Get(ctx, "cold")
	assert.True(t, ok, "misses are not failures and must not open the circuit")
}

func TestCache_NilIsSafe(t *testing.T) {
	t.Parallel()

	var c *Cache
	ctx := context.Background()

	_, ok := c.Get(ctx, "totals")
	assert.False(t, ok)
	c.Set(ctx, "totals", []byte("x"))
	c.Bump(ctx)
	assert.NoError(t, c.Close())

	res := c.Probe(ctx)
	assert.True(t, res.OK)
}

func TestCache_Probe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rdb     *fakeRedis
		wantOK  bool
		wantErr string
	}{
		{
			name:   "healthy",
			rdb:    newFakeRedis(),
			wantOK: true,
		},
		{
			name: "ping fails",
			rdb: func() *fakeRedis {
				f := newFakeRedis()
				f.err = errors.New("connection refused")
				return f
			}(),
			wantOK:  false,
			wantErr: "connection refused",
		},
		{
			name: "unexpected response",
			rdb: func() *fakeRedis {
				f := newFakeRedis()
				f.pong = "LOADING"
				return f
			}(),
			wantOK:  false,
			wantErr: "unexpected PING response",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := newTestCache(tc.rdb).Probe(context.Background())

			assert.Equal(t, "redis", res.Name)
			assert.Equal(t, tc.wantOK, res.OK)
			if tc.wantErr != "" {
				assert.Contains(t, res.Error, tc.wantErr)
			}
		})
	}
}

func TestCache_ProbeCircuitOpens(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	c := newTestCache(rdb)

	for range 3 {
		c.Probe(context.Background())
	}

	res := c.Probe(context.Background())
	assert.False(t, res.OK)
	assert.Equal(t, "circuit open", res.Error)
}

func TestNew_DisabledReturnsNil(t *testing.T) {
	t.Parallel()

	c := New(config.RedisConfig{Enabled: false}, store.NewCircuitBreaker("redis"))
	assert.Nil(t, c)
}
