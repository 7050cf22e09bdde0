package api

import (
	"net/http"
	"strconv"
	"strings"

	"stockwatch/pkg/apperr"
	"stockwatch/pkg/polygon"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidArgument("invalid %s: %q", key, raw)
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter; only "true" (any case) is true.
func queryBool(c *gin.Context, key string, fallback bool) bool {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	return strings.EqualFold(raw, "true")
}

func (s *Server) searchTickersHandler(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		s.respondError(c, err)
		return
	}
	active := queryBool(c, "active", true)
	data, err := s.market.Search(c.Request.Context(), polygon.SearchParams{
		Search:     c.Query("search"),
		Market:     c.DefaultQuery("market", "stocks"),
		Date:       c.Query("date"),
		TickerType: c.Query("ticker_type"),
		Active:     &active,
		Limit:      limit,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusOK, data)
}

func (s *Server) aggregatesHandler(c *gin.Context) {
	ticker := c.Query("stockTicker")
	if ticker == "" {
		ticker = c.Query("ticker")
	}
	rawMultiplier := c.Query("multiplier")
	if ticker == "" || rawMultiplier == "" || c.Query("timespan") == "" || c.Query("from") == "" || c.Query("to") == "" {
		s.respondError(c, apperr.InvalidArgument("missing required parameters"))
		return
	}
	multiplier, err := queryInt(c, "multiplier", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", 5000)
	if err != nil {
		s.respondError(c, err)
		return
	}
	adjusted := queryBool(c, "adjusted", true)
	data, err := s.market.Aggregates(c.Request.Context(), polygon.AggregatesParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   c.Query("timespan"),
		From:       c.Query("from"),
		To:         c.Query("to"),
		Adjusted:   &adjusted,
		Sort:       c.DefaultQuery("sort", "asc"),
		Limit:      limit,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusOK, data)
}

func (s *Server) tickerDetailsHandler(c *gin.Context) {
	ticker := c.Query("ticker")
	if ticker == "" {
		s.respondError(c, apperr.InvalidArgument("ticker is required"))
		return
	}
	data, err := s.market.TickerDetails(c.Request.Context(), ticker, c.Query("date"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusOK, data)
}

// snapshotHandler proxies the snapshot and remembers every ticker it returns.
func (s *Server) snapshotHandler(c *gin.Context) {
	var tickers []string
	if raw := c.Query("tickers"); raw != "" {
		tickers = strings.Split(raw, ",")
	}
	ctx := c.Request.Context()
	data, err := s.market.Snapshot(ctx, tickers, queryBool(c, "include_otc", false))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if seen := snapshotTickers(data); len(seen) > 0 {
		// the cache is best effort; a failure must not hide the market data
		if err := s.tickers.RememberTickers(ctx, seen); err != nil {
			log.Warn().Err(err).Str("request_id", requestID(c)).Msg("failed to cache ticker symbols")
		}
	}
	success(c, http.StatusOK, data)
}

// snapshotTickers extracts data["tickers"][i]["ticker"].
func snapshotTickers(data map[string]any) []string {
	list, _ := data["tickers"].([]any)
	out := make([]string, 0, len(list))
	for _, entry := range list {
		m, _ := entry.(map[string]any)
		if t, _ := m["ticker"].(string); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) listTickersHandler(c *gin.Context) {
	symbols, err := s.tickers.ListTickers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(symbols))
	for _, ts := range symbols {
		out = append(out, gin.H{"ticker": ts.Ticker})
	}
	success(c, http.StatusOK, out)
}

// newsHandler returns only the upstream "results" array.
func (s *Server) newsHandler(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}
	data, err := s.market.News(c.Request.Context(), polygon.NewsParams{
		Ticker:       c.Query("ticker"),
		PublishedUTC: c.Query("published_utc"),
		Order:        c.Query("order"),
		Limit:        limit,
		Sort:         c.Query("sort"),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	results, ok := data["results"]
	if !ok || results == nil {
		results = []any{}
	}
	success(c, http.StatusOK, results)
}
