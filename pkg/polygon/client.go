// Package polygon is a thin client for the Polygon.io market-data REST API.
// It validates parameters, forwards one GET per call and returns the decoded JSON body.
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockwatch/pkg/apperr"

	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://api.polygon.io"
	defaultTimeout = 10 * time.Second

	maxSearchLimit = 1000
	// maxErrorBody bounds how much of an upstream error body is kept in the error message.
	maxErrorBody = 512
)

var validTimespans = []string{"second", "minute", "hour", "day", "week", "month", "quarter", "year"}

// Client talks to the upstream provider. It holds no mutable state and is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AggregatesParams selects an OHLC bar range.
type AggregatesParams struct {
	Ticker     string
	Multiplier int
	Timespan   string
	From       string
	To         string
	// Adjusted defaults to true when nil.
	Adjusted *bool
	Sort     string
	Limit    int
}

// Aggregates fetches aggregate bars for a ticker over a date range.
func (c *Client) Aggregates(ctx context.Context, p AggregatesParams) (map[string]any, error) {
	if !validTimespan(p.Timespan) {
		return nil, apperr.InvalidArgument("invalid parameter \"timespan\". Valid options: %s", strings.Join(validTimespans, ", "))
	}
	ticker := strings.ToUpper(strings.TrimSpace(p.Ticker))
	if ticker == "" || p.Multiplier <= 0 || p.From == "" || p.To == "" {
		return nil, apperr.InvalidArgument("invalid query parameters")
	}
	adjusted := true
	if p.Adjusted != nil {
		adjusted = *p.Adjusted
	}
	sort := p.Sort
	if sort == "" {
		sort = "asc"
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 5000
	}

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		url.PathEscape(ticker), p.Multiplier, p.Timespan, url.PathEscape(p.From), url.PathEscape(p.To))
	q := url.Values{}
	q.Set("adjusted", strconv.FormatBool(adjusted))
	q.Set("sort", sort)
	q.Set("limit", strconv.Itoa(limit))
	return c.get(ctx, path, q)
}

// Snapshot fetches the market snapshot. A nil tickers slice means all tickers.
func (c *Client) Snapshot(ctx context.Context, tickers []string, includeOTC bool) (map[string]any, error) {
	q := url.Values{}
	q.Set("include_otc", strconv.FormatBool(includeOTC))
	if tickers != nil {
		if len(tickers) == 0 {
			return nil, apperr.InvalidArgument("tickers must be a list of non-empty strings")
		}
		for _, t := range tickers {
			if t == "" {
				return nil, apperr.InvalidArgument("tickers must be a list of non-empty strings")
			}
		}
		q.Set("tickers", strings.Join(tickers, ","))
	}
	return c.get(ctx, "/v2/snapshot/locale/us/markets/stocks/tickers", q)
}

// SearchParams filters the reference ticker search. Empty fields are not sent.
type SearchParams struct {
	Search     string
	Date       string
	Ticker     string
	TickerType string
	// Market defaults to "stocks".
	Market   string
	Exchange string
	// Active defaults to true when nil.
	Active *bool
	Limit  int
	Order  string
	Sort   string
}

// Search queries reference tickers. Limit is clamped into [1, 1000].
func (c *Client) Search(ctx context.Context, p SearchParams) (map[string]any, error) {
	if strings.TrimSpace(p.Search) == "" {
		return nil, apperr.InvalidArgument("search parameter is required")
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	limit := p.Limit
	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	market := p.Market
	if market == "" {
		market = "stocks"
	}

	q := url.Values{}
	q.Set("search", p.Search)
	q.Set("active", strconv.FormatBool(active))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("market", market)
	setIf(q, "date", p.Date)
	setIf(q, "ticker", p.Ticker)
	setIf(q, "type", p.TickerType)
	setIf(q, "exchange", p.Exchange)
	setIf(q, "order", p.Order)
	setIf(q, "sort", p.Sort)
	return c.get(ctx, "/v3/reference/tickers", q)
}

// TickerDetails fetches reference data for one ticker, optionally as of date.
func (c *Client) TickerDetails(ctx context.Context, ticker, date string) (map[string]any, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, apperr.InvalidArgument("ticker is required")
	}
	q := url.Values{}
	setIf(q, "date", date)
	return c.get(ctx, "/v3/reference/tickers/"+url.PathEscape(ticker), q)
}

// NewsParams filters the news feed. Zero values fall back to order=asc, limit=15, sort=published_utc.
type NewsParams struct {
	Ticker       string
	PublishedUTC string
	Order        string
	Limit        int
	Sort         string
}

func (c *Client) News(ctx context.Context, p NewsParams) (map[string]any, error) {
	order := p.Order
	if order == "" {
		order = "asc"
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 15
	}
	sort := p.Sort
	if sort == "" {
		sort = "published_utc"
	}
	q := url.Values{}
	setIf(q, "ticker", p.Ticker)
	setIf(q, "published_utc", p.PublishedUTC)
	q.Set("order", order)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", sort)
	return c.get(ctx, "/v2/reference/news", q)
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (map[string]any, error) {
	q.Set("apiKey", c.apiKey)
	endpoint := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(redactURL(err, path), "market data request failed")
	}
	defer resp.Body.Close()

	log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("polygon request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperr.Upstream(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			"market data request failed")
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Upstream(err, "decode market data response")
	}
	return out, nil
}

// redactURL drops the request URL from transport errors; its query carries the api key.
func redactURL(err error, path string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s %s: %w", urlErr.Op, path, urlErr.Err)
	}
	return err
}

func validTimespan(s string) bool {
	for _, v := range validTimespans {
		if s == v {
			return true
		}
	}
	return false
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
