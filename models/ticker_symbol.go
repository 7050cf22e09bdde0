package models

import "time"

// TickerSymbol is a symbol seen in an upstream snapshot. The table only grows; it is a
// lookup convenience and never the source of truth.
type TickerSymbol struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Ticker    string `gorm:"size:20;not null;uniqueIndex"`
}
