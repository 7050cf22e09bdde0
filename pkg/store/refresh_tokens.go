package store

import (
	"context"
	"errors"
	"time"

	"stockwatch/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) RecordRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	err := s.db.WithContext(ctx).Create(rt).Error
	return translate(err, "refresh token not found", "refresh token already recorded")
}

// RevokeRefreshToken flips the revoked flag, inserting the record when it was never stored.
func (s *Store) RevokeRefreshToken(ctx context.Context, tokenID string, userID uint, expiresAt time.Time) error {
	rt := models.RefreshToken{UserID: userID, TokenID: tokenID, ExpiresAt: expiresAt, Revoked: true}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"revoked": true, "updated_at": time.Now()}),
	}).Create(&rt).Error
}

func (s *Store) IsRefreshTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var rt models.RefreshToken
	err := s.db.WithContext(ctx).Select("revoked").Where("token_id = ?", tokenID).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rt.Revoked, nil
}

// PruneRefreshTokens deletes records that expired before cutoff; they can no longer verify anyway.
func (s *Store) PruneRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
