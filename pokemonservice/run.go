package pokemonservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rochacaio/pokemon-backend/internal/api"
	"github.com/rochacaio/pokemon-backend/internal/api/middleware"
	"github.com/rochacaio/pokemon-backend/internal/api/recovery"
	"github.com/rochacaio/pokemon-backend/internal/config"
	"github.com/rochacaio/pokemon-backend/internal/factory"
	"github.com/rochacaio/pokemon-backend/internal/health"
	"github.com/rochacaio/pokemon-backend/internal/listcache"
	"github.com/rochacaio/pokemon-backend/internal/logger"
	"github.com/rochacaio/pokemon-backend/internal/pokeapi"
	"github.com/rochacaio/pokemon-backend/internal/ratelimit"
	"github.com/rochacaio/pokemon-backend/internal/services"
	"github.com/rochacaio/pokemon-backend/internal/store"
)

// dependencies are the long-lived components shared by the router and the
// health checkers.
type dependencies struct {
	store   store.Backend
	limiter *factory.RateLimiter
	cache   *listcache.Cache
	pokeapi *pokeapi.Client
	service *services.PokemonService
}

func (d *dependencies) close(log zerolog.Logger) {
	if err := d.limiter.Close(); err != nil {
		log.Warn().Err(err).Msg("rate limiter close failed")
	}
	if err := d.store.Close(); err != nil {
		log.Warn().Err(err).Msg("store close failed")
	}
}

// Run starts the pokemon service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("pokemon-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Error().Err(err).Msg("Invalid log level")
		return err
	}
	zerolog.DefaultContextLogger = &log

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("rate_limit_backend", cfg.RateLimitBackend).
		Msg("Pokemon service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close(log)

	healthHandler := api.NewHealthHandler(deps.store, nil, time.Duration(cfg.HealthProbeTimeoutSeconds)*time.Second)
	router := buildRouter(deps, healthHandler, cfg, log)

	storeChecker := startHealthCheckers(ctx, cfg, log, deps, healthHandler)

	// Block startup until the store answers; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, storeChecker.IsHealthy); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, err
	}

	limiter, err := factory.NewRateLimiter(ctx, cfg, log)
	if err != nil {
		_ = st.Close()
		log.Error().Stack().Err(err).Msg("Rate limiter unavailable")
		return nil, err
	}

	cache := listcache.New(cfg.ListCacheSize, cfg.ListCacheTTL, log)
	client := pokeapi.New(pokeapi.Options{
		BaseURL: cfg.PokeAPIURL,
		Timeout: cfg.PokeAPITimeout,
		RPS:     cfg.PokeAPIRPS,
	}, log)

	return &dependencies{
		store:   st,
		limiter: limiter,
		cache:   cache,
		pokeapi: client,
		service: services.NewPokemonService(st, cache, client, log),
	}, nil
}

// buildRouter wires HTTP routes to handlers. Only the /pokemons routes are
// rate limited.
func buildRouter(deps *dependencies, healthHandler *api.HealthHandler, cfg *config.Config, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware, middleware.RequestID(log), middleware.AccessLog, middleware.Metrics)

	pokemons := root.NewRoute().Subrouter()
	pokemons.Use(ratelimit.Middleware(deps.limiter, ratelimit.ClientIP(cfg.RateLimitTrustProxy)))
	api.NewPokemonHandler(deps.service).Register(pokemons)

	// Health
	root.HandleFunc("/health", healthHandler.DBHealth).Methods(http.MethodGet)
	root.HandleFunc("/v0/health", healthHandler.CheckHealth).Methods(http.MethodGet)

	root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return root
}

// startHealthCheckers starts component checkers and the service-level
// aggregator, binds health and returns the store checker.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, deps *dependencies, healthHandler *api.HealthHandler) *health.PingChecker {
	var checkers []health.HealthChecker
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := health.NewPingChecker("store", deps.store, log, probeTimeout)
	go storeChecker.Start(ctx, interval)
	checkers = append(checkers, storeChecker)

	if deps.limiter.Pinger != nil {
		redisChecker := health.NewPingChecker("redis", deps.limiter.Pinger, log, probeTimeout)
		go redisChecker.Start(ctx, interval)
		checkers = append(checkers, redisChecker)
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	healthHandler.BindServiceHealth(svcHealth.IsHealthy)
	return storeChecker
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until isHealthy reports true or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, isHealthy func() bool) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if isHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
