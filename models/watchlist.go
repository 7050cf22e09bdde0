package models

import "time"

const (
	MaxWatchlistNameLen = 150
	MaxTickerLen        = 10
	MaxItemNameLen      = 60
)

// Watchlist is a named collection of tickers owned by one user.
// A user cannot own two watchlists with the same name.
type Watchlist struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint            `gorm:"not null;index;uniqueIndex:idx_watchlists_user_name"`
	Name      string          `gorm:"size:150;not null;uniqueIndex:idx_watchlists_user_name"`
	Items     []WatchlistItem `gorm:"foreignKey:WatchlistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// WatchlistItem is a single ticker inside a watchlist. Tickers are stored upper-cased
// and are unique per watchlist.
type WatchlistItem struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	WatchlistID uint   `gorm:"not null;index;uniqueIndex:idx_watchlist_items_watchlist_ticker"`
	Ticker      string `gorm:"size:10;not null;uniqueIndex:idx_watchlist_items_watchlist_ticker"`
	Name        string `gorm:"size:60"`
}
