package store

import (
	"context"

	"stockwatch/models"
	"stockwatch/pkg/apperr"

	"gorm.io/gorm"
)

const (
	errWatchlistNotFound = "watchlist not found"
	errWatchlistExists   = "watchlist with this name already exists"
	errTickerExists      = "ticker already in watchlist"
)

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("watchlist_items.id")
}

func (s *Store) CreateWatchlist(ctx context.Context, w *models.Watchlist) error {
	err := s.db.WithContext(ctx).Omit("Items").Create(w).Error
	return translate(err, errWatchlistNotFound, errWatchlistExists)
}

// Watchlist loads a watchlist owned by userID, items attached.
func (s *Store) Watchlist(ctx context.Context, userID, id uint) (*models.Watchlist, error) {
	var w models.Watchlist
	err := s.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("id = ? AND user_id = ?", id, userID).
		First(&w).Error
	if err != nil {
		return nil, translate(err, errWatchlistNotFound, "")
	}
	if w.Items == nil {
		w.Items = []models.WatchlistItem{}
	}
	return &w, nil
}

func (s *Store) Watchlists(ctx context.Context, userID uint) ([]models.Watchlist, error) {
	lists := []models.Watchlist{}
	err := s.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("user_id = ?", userID).
		Order("id").
		Find(&lists).Error
	if err != nil {
		return nil, err
	}
	for i := range lists {
		if lists[i].Items == nil {
			lists[i].Items = []models.WatchlistItem{}
		}
	}
	return lists, nil
}

func (s *Store) WatchlistNameTaken(ctx context.Context, userID uint, name string, exceptID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Watchlist{}).
		Where("user_id = ? AND name = ? AND id <> ?", userID, name, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) RenameWatchlist(ctx context.Context, id uint, name string) error {
	res := s.db.WithContext(ctx).Model(&models.Watchlist{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return translate(res.Error, errWatchlistNotFound, errWatchlistExists)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(errWatchlistNotFound)
	}
	return nil
}

// DeleteWatchlist removes the watchlist and its items in one transaction.
func (s *Store) DeleteWatchlist(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("watchlist_id = ?", id).Delete(&models.WatchlistItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Watchlist{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(errWatchlistNotFound)
		}
		return nil
	})
}

func (s *Store) TickerInWatchlist(ctx context.Context, watchlistID uint, ticker string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.WatchlistItem{}).
		Where("watchlist_id = ? AND ticker = ?", watchlistID, ticker).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) AddItem(ctx context.Context, item *models.WatchlistItem) error {
	err := s.db.WithContext(ctx).Create(item).Error
	return translate(err, errWatchlistNotFound, errTickerExists)
}

func (s *Store) RemoveItem(ctx context.Context, watchlistID uint, ticker string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("watchlist_id = ? AND ticker = ?", watchlistID, ticker).
		Delete(&models.WatchlistItem{})
	return res.RowsAffected > 0, res.Error
}

// CountItems reports how many items reference the watchlist.
func (s *Store) CountItems(ctx context.Context, watchlistID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.WatchlistItem{}).Where("watchlist_id = ?", watchlistID).Count(&n).Error
	return n, err
}
