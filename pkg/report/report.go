// Package report summarizes users and their watchlists for operators.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"stockwatch/models"
)

// Source is the read side of the store the report needs.
type Source interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	Watchlists(ctx context.Context, userID uint) ([]models.Watchlist, error)
}

// UserSummary is one report row.
type UserSummary struct {
	Username   string
	CreatedAt  time.Time
	Watchlists []models.Watchlist
}

// Tickers counts items across all watchlists of the user.
func (u UserSummary) Tickers() int {
	n := 0
	for _, w := range u.Watchlists {
		n += len(w.Items)
	}
	return n
}

// Build collects summaries for username, or for every user when username is empty.
func Build(ctx context.Context, src Source, username string) ([]UserSummary, error) {
	var users []models.User
	if username != "" {
		u, err := src.UserByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		users = []models.User{*u}
	} else {
		var err error
		if users, err = src.ListUsers(ctx); err != nil {
			return nil, err
		}
	}

	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		lists, err := src.Watchlists(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("watchlists of %s: %w", u.Username, err)
		}
		out = append(out, UserSummary{Username: u.Username, CreatedAt: u.CreatedAt, Watchlists: lists})
	}
	return out, nil
}

// Write prints the summaries. With list set every watchlist is printed with its tickers.
func Write(w io.Writer, rows []UserSummary, list bool) {
	for _, r := range rows {
		fmt.Fprintf(w, "user=%s created=%s watchlists=%d tickers=%d\n",
			r.Username, r.CreatedAt.UTC().Format(time.RFC3339), len(r.Watchlists), r.Tickers())
		if !list {
			continue
		}
		for _, wl := range r.Watchlists {
			tickers := make([]string, 0, len(wl.Items))
			for _, it := range wl.Items {
				tickers = append(tickers, it.Ticker)
			}
			fmt.Fprintf(w, "  %d|%s|%s\n", wl.ID, wl.Name, strings.Join(tickers, ","))
		}
	}
}
