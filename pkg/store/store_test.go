package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"stockwatch/models"
	"stockwatch/pkg/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsUniqueConstraintError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm duplicated", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"pg 23505", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"text", errors.New(`ERROR: duplicate key value violates unique constraint "idx"`), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isUniqueConstraintError(c.err); got != c.want {
				t.Fatalf("got %v want %v", got, c.want)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	if err := translate(gorm.ErrRecordNotFound, "user not found", ""); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("not found: got %v", err)
	}
	if err := translate(gorm.ErrDuplicatedKey, "", "user already exists"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("conflict: got %v", err)
	}
	if err := translate(fmt.Errorf("create: %w", gorm.ErrForeignKeyViolated), "watchlist not found", ""); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("gorm foreign key: got %v", err)
	}
	if err := translate(&pgconn.PgError{Code: "23503"}, "watchlist not found", ""); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("pg 23503: got %v", err)
	}
	other := errors.New("boom")
	if err := translate(other, "", ""); err != other {
		t.Fatalf("other errors pass through, got %v", err)
	}
	if translate(nil, "", "") != nil {
		t.Fatal("nil should stay nil")
	}
}

// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	db, err := Open(os.Getenv("DB_DSN"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresWatchlistLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := &models.User{Username: fmt.Sprintf("store_%d", time.Now().UnixNano()), HashedPassword: []byte("x")}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteUser(ctx, u.ID) })
	dup := &models.User{Username: u.Username, HashedPassword: []byte("x")}
	if err := s.CreateUser(ctx, dup); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("duplicate user: got %v", err)
	}

	w := &models.Watchlist{UserID: u.ID, Name: "Tech"}
	if err := s.CreateWatchlist(ctx, w); err != nil {
		t.Fatalf("create watchlist: %v", err)
	}
	if err := s.CreateWatchlist(ctx, &models.Watchlist{UserID: u.ID, Name: "Tech"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("duplicate watchlist: got %v", err)
	}

	if err := s.AddItem(ctx, &models.WatchlistItem{WatchlistID: w.ID, Ticker: "AAPL"}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := s.AddItem(ctx, &models.WatchlistItem{WatchlistID: w.ID, Ticker: "AAPL"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("duplicate item: got %v", err)
	}

	got, err := s.Watchlist(ctx, u.ID, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("items = %+v", got.Items)
	}
	if _, err := s.Watchlist(ctx, u.ID+1_000_000, w.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("foreign owner: got %v", err)
	}

	if err := s.DeleteWatchlist(ctx, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := s.CountItems(ctx, w.ID); n != 0 {
		t.Fatalf("orphan items: %d", n)
	}
}

func TestPostgresRefreshTokens(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := &models.User{Username: fmt.Sprintf("tokens_%d", time.Now().UnixNano()), HashedPassword: []byte("x")}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteUser(ctx, u.ID) })

	jti := fmt.Sprintf("jti-%d", time.Now().UnixNano())
	exp := time.Now().Add(time.Hour)
	if err := s.RecordRefreshToken(ctx, &models.RefreshToken{UserID: u.ID, TokenID: jti, ExpiresAt: exp}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if revoked, _ := s.IsRefreshTokenRevoked(ctx, jti); revoked {
		t.Fatal("fresh token reported revoked")
	}
	for i := 0; i < 2; i++ {
		if err := s.RevokeRefreshToken(ctx, jti, u.ID, exp); err != nil {
			t.Fatalf("revoke #%d: %v", i, err)
		}
	}
	if revoked, _ := s.IsRefreshTokenRevoked(ctx, jti); !revoked {
		t.Fatal("token not revoked")
	}

	unrecorded := jti + "-x"
	if err := s.RevokeRefreshToken(ctx, unrecorded, u.ID, exp); err != nil {
		t.Fatalf("revoke unrecorded: %v", err)
	}
	if revoked, _ := s.IsRefreshTokenRevoked(ctx, unrecorded); !revoked {
		t.Fatal("unrecorded token not revoked")
	}
}
