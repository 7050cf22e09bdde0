// Package api exposes the HTTP interface: session endpoints, watchlists and the market-data proxy.
package api

import (
	"context"
	"net/http"

	"stockwatch/models"
	"stockwatch/pkg/auth"
	"stockwatch/pkg/polygon"
	"stockwatch/pkg/watchlist"

	"github.com/gin-gonic/gin"
)

// MarketData is the upstream gateway. *polygon.Client implements it.
type MarketData interface {
	Aggregates(ctx context.Context, p polygon.AggregatesParams) (map[string]any, error)
	Snapshot(ctx context.Context, tickers []string, includeOTC bool) (map[string]any, error)
	Search(ctx context.Context, p polygon.SearchParams) (map[string]any, error)
	TickerDetails(ctx context.Context, ticker, date string) (map[string]any, error)
	News(ctx context.Context, p polygon.NewsParams) (map[string]any, error)
}

// TickerCache remembers symbols seen in snapshot responses.
type TickerCache interface {
	RememberTickers(ctx context.Context, tickers []string) error
	ListTickers(ctx context.Context) ([]models.TickerSymbol, error)
}

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool
	Domain string
}

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Accounts    *auth.Accounts
	Tokens      *auth.TokenService
	Watchlists  *watchlist.Service
	Market      MarketData
	Tickers     TickerCache
	Cookies     CookieConfig
	CORSOrigins []string
}

type Server struct {
	accounts   *auth.Accounts
	tokens     *auth.TokenService
	watchlists *watchlist.Service
	market     MarketData
	tickers    TickerCache
	cookies    CookieConfig
	origins    []string
}

func NewServer(d Deps) *Server {
	return &Server{
		accounts:   d.Accounts,
		tokens:     d.Tokens,
		watchlists: d.Watchlists,
		market:     d.Market,
		tickers:    d.Tickers,
		cookies:    d.Cookies,
		origins:    d.CORSOrigins,
	}
}

// Engine builds a gin engine with the middleware chain and all routes.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logging("/healthz"), Recovery(), CORS(s.origins))
	s.SetupRoutes(r)
	return r
}

func (s *Server) SetupRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/register", s.registerHandler)
	r.POST("/login", s.loginHandler)
	r.POST("/refresh_token", s.refreshHandler)
	r.POST("/logout", s.logoutHandler)

	authGroup := r.Group("")
	authGroup.Use(s.requireAccess())
	authGroup.GET("/user_info", s.userInfoHandler)

	authGroup.POST("/watchlists/create", s.createWatchlistHandler)
	authGroup.GET("/watchlists/all", s.listWatchlistsHandler)
	authGroup.DELETE("/watchlists/remove_ticker", s.removeTickerHandler)
	authGroup.GET("/watchlists/:id/", s.getWatchlistHandler)
	authGroup.PUT("/watchlists/:id/", s.renameWatchlistHandler)
	authGroup.DELETE("/watchlists/:id/", s.deleteWatchlistHandler)
	authGroup.POST("/watchlists/:id/add_ticker", s.addTickerHandler)

	authGroup.GET("/search_tickers", s.searchTickersHandler)
	authGroup.GET("/stock_aggregate_data", s.aggregatesHandler)
	authGroup.GET("/stocks/details", s.tickerDetailsHandler)
	authGroup.GET("/tickers-snapshot", s.snapshotHandler)
	authGroup.GET("/tickers", s.listTickersHandler)
	authGroup.GET("/news", s.newsHandler)
}
