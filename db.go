package main

import (
	"context"
	"fmt"
	"time"

	"stockwatch/pkg/api"
	"stockwatch/pkg/auth"
	"stockwatch/pkg/config"
	"stockwatch/pkg/logger"
	"stockwatch/pkg/store"
	"stockwatch/pkg/store/memory"
	"stockwatch/pkg/watchlist"

	"github.com/rs/zerolog/log"
)

// repository is everything the server needs from persistence.
type repository interface {
	auth.UserRepository
	auth.RevocationStore
	watchlist.Repository
	api.TickerCache
	PruneRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

var (
	_ repository = (*store.Store)(nil)
	_ repository = (*memory.DB)(nil)
)

const slowQueryThreshold = 200 * time.Millisecond

// openRepository selects the store driver. The returned close func releases the connection pool.
func openRepository(cfg *config.Config) (repository, func() error, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.New(), func() error { return nil }, nil
	case "postgres":
		db, err := store.Open(cfg.DatabaseDSN, logger.NewGormLogger(slowQueryThreshold))
		if err != nil {
			return nil, nil, err
		}
		s := store.New(db)
		if cfg.DBAutoMigrate {
			// migration problems are logged per table and do not stop the server
			if err := s.Migrate(); err != nil {
				log.Warn().Err(err).Msg("schema migration incomplete")
			}
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// pruneExpiredTokens drops refresh-token records that can no longer verify.
func pruneExpiredTokens(ctx context.Context, repo repository) {
	n, err := repo.PruneRefreshTokens(ctx, time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("failed to prune refresh tokens")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("pruned expired refresh tokens")
	}
}
