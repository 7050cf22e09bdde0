package store

import (
	"context"

	"stockwatch/models"
)

// RememberTickers get-or-creates a symbol row for each ticker. Concurrent inserts of the same
// symbol are harmless: the loser sees a unique violation and the row already exists.
func (s *Store) RememberTickers(ctx context.Context, tickers []string) error {
	db := s.db.WithContext(ctx)
	for _, t := range tickers {
		if t == "" {
			continue
		}
		var ts models.TickerSymbol
		if err := db.Where(models.TickerSymbol{Ticker: t}).FirstOrCreate(&ts).Error; err != nil && !isUniqueConstraintError(err) {
			return err
		}
	}
	return nil
}

func (s *Store) ListTickers(ctx context.Context) ([]models.TickerSymbol, error) {
	var out []models.TickerSymbol
	if err := s.db.WithContext(ctx).Order("ticker").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
