package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rochacaio/pokemon-backend/internal/config"
	storepkg "github.com/rochacaio/pokemon-backend/internal/store"
	storepg "github.com/rochacaio/pokemon-backend/internal/store/postgres"
	storesqlite "github.com/rochacaio/pokemon-backend/internal/store/sqlite"
)

// NewStore returns the store.Backend selected by cfg.DBDriver.
// Postgres migrations run before the store is returned, bounded by
// cfg.BootstrapTimeoutSeconds.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Backend, error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := storesqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		log.Info().Str("driver", cfg.DBDriver).Str("path", cfg.SQLitePath).Msg("store ready")
		return storesqlite.NewWithDB(db), nil

	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("%s_POSTGRES_DSN is required when DB_DRIVER=postgres", config.EnvPrefix)
		}

		bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()
		if err := storepg.Bootstrap(bootstrapCtx, dsn); err != nil {
			return nil, fmt.Errorf("postgres bootstrap: %w", err)
		}

		db, err := storepg.Open(bootstrapCtx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", cfg.DBDriver).Msg("store ready")
		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
