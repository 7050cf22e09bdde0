// Package store is the PostgreSQL persistence layer built on gorm.
package store

import (
	"errors"
	"fmt"
	"strings"

	"stockwatch/models"
	"stockwatch/pkg/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLSTATE codes for unique_violation and foreign_key_violation.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Store implements the credential store, the revocation store, the watchlist repository and
// the ticker cache on top of one gorm handle.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL.
func Open(dsn string, logger gormlogger.Interface) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	cfg := &gorm.Config{TranslateError: true}
	if logger != nil {
		cfg.Logger = logger
	}
	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres database: %w", err)
	}
	return db, nil
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the schema. Models are migrated one at a time so a failure on
// one table is reported without blocking the others; users go first so foreign keys resolve.
func (s *Store) Migrate() error {
	var errs []error
	for _, m := range []struct {
		table string
		model any
	}{
		{"users", &models.User{}},
		{"watchlists", &models.Watchlist{}},
		{"watchlist_items", &models.WatchlistItem{}},
		{"refresh_tokens", &models.RefreshToken{}},
		{"ticker_symbols", &models.TickerSymbol{}},
	} {
		if err := s.db.AutoMigrate(m.model); err != nil {
			log.Warn().Err(err).Str("table", m.table).Msg("migration warning")
			errs = append(errs, fmt.Errorf("migrate %s: %w", m.table, err))
		}
	}
	return errors.Join(errs...)
}

// isUniqueConstraintError reports whether err is a unique index violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

// isForeignKeyError reports whether err is a foreign key violation, e.g. a row whose parent was just deleted.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// translate maps driver errors onto apperr kinds; conflictMsg is used for unique violations.
func translate(err error, notFoundMsg, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s", notFoundMsg)
	case isUniqueConstraintError(err):
		return apperr.Conflict("%s", conflictMsg)
	case isForeignKeyError(err):
		return apperr.NotFound("%s", notFoundMsg)
	default:
		return err
	}
}
