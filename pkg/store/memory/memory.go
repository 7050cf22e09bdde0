// Package memory implements an in-memory store for development and testing.
// It enforces the same uniqueness and cascade rules as the PostgreSQL schema.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"stockwatch/models"
	"stockwatch/pkg/apperr"
)

// DB implements an in-memory database storage.
type DB struct {
	mu            sync.Mutex
	users         map[uint]*models.User
	watchlists    map[uint]*models.Watchlist
	items         map[uint]*models.WatchlistItem
	refreshTokens map[string]*models.RefreshToken
	tickers       map[string]*models.TickerSymbol

	userIDCounter      uint
	watchlistIDCounter uint
	itemIDCounter      uint
	tokenIDCounter     uint
	tickerIDCounter    uint
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users:         make(map[uint]*models.User),
		watchlists:    make(map[uint]*models.Watchlist),
		items:         make(map[uint]*models.WatchlistItem),
		refreshTokens: make(map[string]*models.RefreshToken),
		tickers:       make(map[string]*models.TickerSymbol),
	}
}

// --- users ---

func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.users {
		if existing.Username == u.Username {
			return apperr.Conflict("user already exists")
		}
	}
	db.userIDCounter++
	now := time.Now()
	u.ID = db.userIDCounter
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	cp.Watchlists, cp.RefreshTokens = nil, nil
	db.users[u.ID] = &cp
	return nil
}

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]models.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (db *DB) UpdatePassword(ctx context.Context, userID uint, hash []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.HashedPassword = hash
	u.UpdatedAt = time.Now()
	return nil
}

// DeleteUser removes the user with its watchlists, items and refresh-token records.
func (db *DB) DeleteUser(ctx context.Context, userID uint) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[userID]; !ok {
		return apperr.NotFound("user not found")
	}
	for id, w := range db.watchlists {
		if w.UserID == userID {
			db.deleteWatchlistLocked(id)
		}
	}
	for jti, rt := range db.refreshTokens {
		if rt.UserID == userID {
			delete(db.refreshTokens, jti)
		}
	}
	delete(db.users, userID)
	return nil
}

// --- refresh tokens ---

func (db *DB) RecordRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.refreshTokens[rt.TokenID]; ok {
		return apperr.Conflict("refresh token already recorded")
	}
	db.tokenIDCounter++
	now := time.Now()
	rt.ID = db.tokenIDCounter
	rt.CreatedAt, rt.UpdatedAt = now, now
	cp := *rt
	db.refreshTokens[rt.TokenID] = &cp
	return nil
}

func (db *DB) RevokeRefreshToken(ctx context.Context, tokenID string, userID uint, expiresAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now()
	if rt, ok := db.refreshTokens[tokenID]; ok {
		rt.Revoked = true
		rt.UpdatedAt = now
		return nil
	}
	db.tokenIDCounter++
	db.refreshTokens[tokenID] = &models.RefreshToken{
		ID:        db.tokenIDCounter,
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    userID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
		Revoked:   true,
	}
	return nil
}

func (db *DB) IsRefreshTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rt, ok := db.refreshTokens[tokenID]
	return ok && rt.Revoked, nil
}

// PruneRefreshTokens deletes records that expired before cutoff.
func (db *DB) PruneRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var n int64
	for jti, rt := range db.refreshTokens {
		if rt.ExpiresAt.Before(cutoff) {
			delete(db.refreshTokens, jti)
			n++
		}
	}
	return n, nil
}

// --- watchlists ---

func (db *DB) CreateWatchlist(ctx context.Context, w *models.Watchlist) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.nameTakenLocked(w.UserID, w.Name, 0) {
		return apperr.Conflict("watchlist with this name already exists")
	}
	db.watchlistIDCounter++
	now := time.Now()
	w.ID = db.watchlistIDCounter
	w.CreatedAt, w.UpdatedAt = now, now
	cp := *w
	cp.Items = nil
	db.watchlists[w.ID] = &cp
	return nil
}

func (db *DB) Watchlist(ctx context.Context, userID, id uint) (*models.Watchlist, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	w, ok := db.watchlists[id]
	if !ok || w.UserID != userID {
		return nil, apperr.NotFound("watchlist not found")
	}
	out := db.withItemsLocked(w)
	return &out, nil
}

func (db *DB) Watchlists(ctx context.Context, userID uint) ([]models.Watchlist, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []models.Watchlist{}
	for _, w := range db.watchlists {
		if w.UserID == userID {
			out = append(out, db.withItemsLocked(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (db *DB) WatchlistNameTaken(ctx context.Context, userID uint, name string, exceptID uint) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.nameTakenLocked(userID, name, exceptID), nil
}

func (db *DB) RenameWatchlist(ctx context.Context, id uint, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	w, ok := db.watchlists[id]
	if !ok {
		return apperr.NotFound("watchlist not found")
	}
	if db.nameTakenLocked(w.UserID, name, id) {
		return apperr.Conflict("watchlist with this name already exists")
	}
	w.Name = name
	w.UpdatedAt = time.Now()
	return nil
}

func (db *DB) DeleteWatchlist(ctx context.Context, id uint) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.watchlists[id]; !ok {
		return apperr.NotFound("watchlist not found")
	}
	db.deleteWatchlistLocked(id)
	return nil
}

// CountItems reports how many items reference the watchlist, including orphans.
func (db *DB) CountItems(watchlistID uint) int {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, it := range db.items {
		if it.WatchlistID == watchlistID {
			n++
		}
	}
	return n
}

func (db *DB) TickerInWatchlist(ctx context.Context, watchlistID uint, ticker string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.itemLocked(watchlistID, ticker) != nil, nil
}

func (db *DB) AddItem(ctx context.Context, item *models.WatchlistItem) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.watchlists[item.WatchlistID]; !ok {
		return apperr.NotFound("watchlist not found")
	}
	if db.itemLocked(item.WatchlistID, item.Ticker) != nil {
		return apperr.Conflict("ticker already in watchlist")
	}
	db.itemIDCounter++
	now := time.Now()
	item.ID = db.itemIDCounter
	item.CreatedAt, item.UpdatedAt = now, now
	cp := *item
	db.items[item.ID] = &cp
	return nil
}

func (db *DB) RemoveItem(ctx context.Context, watchlistID uint, ticker string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	it := db.itemLocked(watchlistID, ticker)
	if it == nil {
		return false, nil
	}
	delete(db.items, it.ID)
	return true, nil
}

// --- ticker symbols ---

// RememberTickers get-or-creates a symbol row for each ticker.
func (db *DB) RememberTickers(ctx context.Context, tickers []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now()
	for _, t := range tickers {
		if t == "" {
			continue
		}
		if _, ok := db.tickers[t]; ok {
			continue
		}
		db.tickerIDCounter++
		db.tickers[t] = &models.TickerSymbol{ID: db.tickerIDCounter, CreatedAt: now, UpdatedAt: now, Ticker: t}
	}
	return nil
}

func (db *DB) ListTickers(ctx context.Context) ([]models.TickerSymbol, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]models.TickerSymbol, 0, len(db.tickers))
	for _, ts := range db.tickers {
		out = append(out, *ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

// --- helpers (caller holds db.mu) ---

func (db *DB) nameTakenLocked(userID uint, name string, exceptID uint) bool {
	for _, w := range db.watchlists {
		if w.UserID == userID && w.Name == name && w.ID != exceptID {
			return true
		}
	}
	return false
}

func (db *DB) itemLocked(watchlistID uint, ticker string) *models.WatchlistItem {
	for _, it := range db.items {
		if it.WatchlistID == watchlistID && it.Ticker == ticker {
			return it
		}
	}
	return nil
}

func (db *DB) withItemsLocked(w *models.Watchlist) models.Watchlist {
	out := *w
	out.Items = []models.WatchlistItem{}
	for _, it := range db.items {
		if it.WatchlistID == w.ID {
			out.Items = append(out.Items, *it)
		}
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].ID < out.Items[j].ID })
	return out
}

func (db *DB) deleteWatchlistLocked(id uint) {
	for itemID, it := range db.items {
		if it.WatchlistID == id {
			delete(db.items, itemID)
		}
	}
	delete(db.watchlists, id)
}
