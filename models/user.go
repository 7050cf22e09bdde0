package models

import (
	"time"
)

// MaxUsernameLen bounds User.Username.
const MaxUsernameLen = 150

// User model
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Username       string         `gorm:"size:150;not null;uniqueIndex"`
	HashedPassword []byte         `gorm:"not null"`
	Watchlists     []Watchlist    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	RefreshTokens  []RefreshToken `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
