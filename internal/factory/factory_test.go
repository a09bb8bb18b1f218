package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rochacaio/pokemon-backend/internal/config"
	"github.com/rochacaio/pokemon-backend/internal/model"
	"github.com/rochacaio/pokemon-backend/internal/ratelimit"
)

func TestNewStore_SQLite(t *testing.T) {
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "factory.db"))
	st, err := NewStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.HealthPing(context.Background()))
	p, err := st.Pokemons().Create(context.Background(), &model.Pokemon{Name: "mew", Type: "psychic"})
	require.NoError(t, err)
	assert.Positive(t, p.ID)
}

func TestNewStore_UnknownDriver(t *testing.T) {
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "x.db"))
	cfg.DBDriver = "mysql"
	_, err := NewStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewStore_PostgresRequiresDSN(t *testing.T) {
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "x.db"))
	cfg.DBDriver = "postgres"
	cfg.PostgresDSN = ""
	_, err := NewStore(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}

func TestNewRateLimiter_Memory(t *testing.T) {
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "x.db"))
	rl, err := NewRateLimiter(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = rl.Close() }()

	assert.Nil(t, rl.Pinger)
	_, ok := rl.Limiter.(*ratelimit.FixedWindow)
	assert.True(t, ok)
}

func TestNewRateLimiter_MemoryHonorsSweepThreshold(t *testing.T) {
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "x.db"))
	cfg.RateLimitWindow = time.Millisecond
	cfg.RateLimitShards = 1
	cfg.RateLimitSweepThreshold = 2
	rl, err := NewRateLimiter(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	fw := rl.Limiter.(*ratelimit.FixedWindow)

	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := fw.Admit(ctx, id, "GET /pokemons")
		require.NoError(t, err)
	}
	time.Sleep(10 * time.Millisecond)

	// The shard is at the threshold, so the next new key sweeps both lapsed windows.
	_, err = fw.Admit(ctx, "c", "GET /pokemons")
	require.NoError(t, err)
	assert.Equal(t, 1, fw.Len())
}

func TestNewRateLimiter_RedisUnreachableStillBuilds(t *testing.T) {
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "x.db"))
	cfg.RateLimitBackend = "redis"
	cfg.RedisAddr = "127.0.0.1:1"
	cfg.HealthProbeTimeoutSeconds = 1

	rl, err := NewRateLimiter(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = rl.Close() }()

	assert.NotNil(t, rl.Pinger)
	d, err := rl.Admit(context.Background(), "1.2.3.4", "/pokemons")
	require.NoError(t, err)
	assert.Equal(t, cfg.RateLimitMax, d.Remaining)
}

func TestNewRateLimiter_UnknownBackend(t *testing.T) {
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "x.db"))
	cfg.RateLimitBackend = "memcached"
	_, err := NewRateLimiter(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
