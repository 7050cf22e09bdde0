// Package watchlist implements per-user watchlists of ticker symbols.
package watchlist

import (
	"context"
	"strings"

	"stockwatch/models"
	"stockwatch/pkg/apperr"
)

// Repository persists watchlists and their items. Lookups by owner return NotFound for
// watchlists that are absent or owned by someone else.
type Repository interface {
	CreateWatchlist(ctx context.Context, w *models.Watchlist) error
	Watchlist(ctx context.Context, userID, id uint) (*models.Watchlist, error)
	Watchlists(ctx context.Context, userID uint) ([]models.Watchlist, error)
	WatchlistNameTaken(ctx context.Context, userID uint, name string, exceptID uint) (bool, error)
	RenameWatchlist(ctx context.Context, id uint, name string) error
	DeleteWatchlist(ctx context.Context, id uint) error
	TickerInWatchlist(ctx context.Context, watchlistID uint, ticker string) (bool, error)
	AddItem(ctx context.Context, item *models.WatchlistItem) error
	RemoveItem(ctx context.Context, watchlistID uint, ticker string) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NormalizeTicker returns the canonical form of a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.InvalidArgument("name required")
	}
	if len(name) > models.MaxWatchlistNameLen {
		return "", apperr.InvalidArgument("name too long (max %d)", models.MaxWatchlistNameLen)
	}
	return name, nil
}

func (s *Service) Create(ctx context.Context, owner uint, name string) (*models.Watchlist, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.WatchlistNameTaken(ctx, owner, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("watchlist with this name already exists")
	}
	w := &models.Watchlist{UserID: owner, Name: name}
	if err := s.repo.CreateWatchlist(ctx, w); err != nil {
		return nil, err
	}
	w.Items = []models.WatchlistItem{}
	return w, nil
}

// Rename changes the display name. Renaming to the current name is a no-op success.
func (s *Service) Rename(ctx context.Context, owner, id uint, name string) (*models.Watchlist, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	w, err := s.repo.Watchlist(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if w.Name == name {
		return w, nil
	}
	taken, err := s.repo.WatchlistNameTaken(ctx, owner, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("watchlist with this name already exists")
	}
	if err := s.repo.RenameWatchlist(ctx, id, name); err != nil {
		return nil, err
	}
	w.Name = name
	return w, nil
}

// Delete removes the watchlist together with its items.
func (s *Service) Delete(ctx context.Context, owner, id uint) error {
	if _, err := s.repo.Watchlist(ctx, owner, id); err != nil {
		return err
	}
	return s.repo.DeleteWatchlist(ctx, id)
}

func (s *Service) List(ctx context.Context, owner uint) ([]models.Watchlist, error) {
	return s.repo.Watchlists(ctx, owner)
}

func (s *Service) Get(ctx context.Context, owner, id uint) (*models.Watchlist, error) {
	return s.repo.Watchlist(ctx, owner, id)
}

// AddItem appends a ticker to the watchlist. name is an optional display label.
func (s *Service) AddItem(ctx context.Context, owner, id uint, ticker, name string) (*models.WatchlistItem, error) {
	if _, err := s.repo.Watchlist(ctx, owner, id); err != nil {
		return nil, err
	}
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return nil, apperr.InvalidArgument("ticker required")
	}
	if len(ticker) > models.MaxTickerLen {
		return nil, apperr.InvalidArgument("ticker too long (max %d)", models.MaxTickerLen)
	}
	name = strings.TrimSpace(name)
	if len(name) > models.MaxItemNameLen {
		return nil, apperr.InvalidArgument("item name too long (max %d)", models.MaxItemNameLen)
	}
	exists, err := s.repo.TickerInWatchlist(ctx, id, ticker)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("ticker already in watchlist")
	}
	item := &models.WatchlistItem{WatchlistID: id, Ticker: ticker, Name: name}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) RemoveItem(ctx context.Context, owner, id uint, ticker string) error {
	if _, err := s.repo.Watchlist(ctx, owner, id); err != nil {
		return err
	}
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return apperr.InvalidArgument("ticker required")
	}
	removed, err := s.repo.RemoveItem(ctx, id, ticker)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("ticker not in watchlist")
	}
	return nil
}
