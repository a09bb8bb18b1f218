package pokemonservice

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rochacaio/pokemon-backend/internal/api"
	"github.com/rochacaio/pokemon-backend/internal/config"
)

func newTestServer(t *testing.T, rateLimitMax int) *httptest.Server {
	t.Helper()
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "svc.db"))
	cfg.RateLimitMax = rateLimitMax
	cfg.PokeAPIURL = "http://127.0.0.1:1"

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	deps, err := initDependencies(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { deps.close(zerolog.Nop()) })

	hh := api.NewHealthHandler(deps.store, nil, time.Second)
	storeChecker := startHealthCheckers(ctx, cfg, zerolog.Nop(), deps, hh)
	require.NoError(t, waitUntilHealthy(ctx, cfg, storeChecker.IsHealthy))

	srv := httptest.NewServer(buildRouter(deps, hh, cfg, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_RateLimitsPokemonRoutes(t *testing.T) {
	srv := newTestServer(t, 3)

	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/pokemons")
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	}

	resp, err := http.Get(srv.URL + "/pokemons")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// other routes keep their own quota
	resp, err = http.Get(srv.URL + "/pokemons/1")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// health is not limited
	for i := 0; i < 5; i++ {
		resp, err = http.Get(srv.URL + "/health")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestRouter_ImportUpstreamDown(t *testing.T) {
	srv := newTestServer(t, 60)

	resp, err := http.Post(srv.URL+"/pokemons/import/1", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t, 60)

	resp, err := http.Get(srv.URL + "/pokemons?limit=5")
	require.NoError(t, err)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sb strings.Builder
	_, _ = io.Copy(&sb, resp.Body)
	assert.Contains(t, sb.String(), "pokemon_http_requests_total")
	assert.Contains(t, sb.String(), "pokemon_list_cache_misses_total")
}

func TestCalculateStartupHealthTimeout(t *testing.T) {
	assert.Equal(t, 60, calculateStartupHealthTimeout(5))
	assert.Equal(t, 120, calculateStartupHealthTimeout(60))
}
