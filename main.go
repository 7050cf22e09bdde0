package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockwatch/pkg/api"
	"stockwatch/pkg/auth"
	"stockwatch/pkg/config"
	"stockwatch/pkg/logger"
	"stockwatch/pkg/polygon"
	"stockwatch/pkg/watchlist"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Dir:         cfg.LogDir,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxAgeDays:  cfg.LogMaxAgeDays,
		ServiceName: "stockwatch",
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// `stockwatch migrate` runs the schema migration and exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.DBAutoMigrate = true
		_, closeRepo, err := openRepository(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open store")
		}
		_ = closeRepo()
		log.Info().Msg("migration completed")
		return
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeRepo()

	pruneExpiredTokens(context.Background(), repo)

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newServer(cfg, repo).Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newServer wires the services on top of repo.
func newServer(cfg *config.Config, repo repository) *api.Server {
	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	}, repo)
	return api.NewServer(api.Deps{
		Accounts:    auth.NewAccounts(repo, cfg.BcryptCost),
		Tokens:      tokens,
		Watchlists:  watchlist.NewService(repo),
		Market:      polygon.NewClient(cfg.StockAPIBaseURL, cfg.StockAPIKey, cfg.UpstreamTimeout()),
		Tickers:     repo,
		Cookies:     api.CookieConfig{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain},
		CORSOrigins: cfg.CORSOriginList(),
	})
}
