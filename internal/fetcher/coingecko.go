package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"drawdown-scan/internal/analysis"
)

// CoinGeckoOptions parameterise the CoinGecko client.
type CoinGeckoOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// CoinGecko fetches universes and price histories from the CoinGecko API.
// The history endpoint returns single-price points, not candles.
type CoinGecko struct {
	opts    CoinGeckoOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewCoinGecko constructs a CoinGecko client.
func NewCoinGecko(opts CoinGeckoOptions, logger zerolog.Logger) *CoinGecko {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	return &CoinGecko{
		opts:    opts,
		logger:  logger.With().Str("component", "coingecko_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Name identifies the provider in logs and archived runs.
func (c *CoinGecko) Name() string { return "coingecko" }

// FetchSeries retrieves /coins/{id}/market_chart/range for [from, to].
// CoinGecko keys histories on its own coin id, so the universe must carry it.
func (c *CoinGecko) FetchSeries(ctx context.Context, asset analysis.Asset, from, to time.Time) ([]analysis.PricePoint, error) {
	if asset.ID == "" {
		return nil, fmt.Errorf("coingecko requires an asset id for %s", asset.Symbol)
	}

	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("from", strconv.FormatInt(from.Unix(), 10))
	query.Set("to", strconv.FormatInt(to.Unix(), 10))

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart/range?%s", c.baseURL, url.PathEscape(asset.ID), query.Encode())

	payload, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var chart struct {
		Prices [][]json.Number `json:"prices"`
	}
	if err := json.Unmarshal(payload, &chart); err != nil {
		return nil, fmt.Errorf("decode market chart: %w", err)
	}

	points := make([]analysis.PricePoint, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		if len(pair) < 2 {
			return nil, fmt.Errorf("malformed price pair in market chart")
		}
		ms, err := pair[0].Int64()
		if err != nil {
			return nil, fmt.Errorf("parse price timestamp: %w", err)
		}
		price, err := decimal.NewFromString(pair[1].String())
		if err != nil {
			return nil, fmt.Errorf("parse price value: %w", err)
		}
		points = append(points, analysis.SinglePrice(time.UnixMilli(ms).UTC(), price))
	}

	return points, nil
}

// TopAssets retrieves /coins/markets ordered by market cap descending.
// CoinGecko caps one page at 250 entries.
func (c *CoinGecko) TopAssets(ctx context.Context, limit int) ([]analysis.Asset, error) {
	if limit <= 0 || limit > 250 {
		return nil, fmt.Errorf("limit must be in (0, 250], got %d", limit)
	}

	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(limit))
	query.Set("page", "1")
	query.Set("sparkline", "false")

	endpoint := fmt.Sprintf("%s/coins/markets?%s", c.baseURL, query.Encode())

	payload, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	// market_cap is null for a handful of listings; treat those as zero cap
	// rather than failing the whole page.
	var rows []struct {
		ID        string           `json:"id"`
		Symbol    string           `json:"symbol"`
		Name      string           `json:"name"`
		MarketCap *decimal.Decimal `json:"market_cap"`
	}
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}

	assets := make([]analysis.Asset, 0, len(rows))
	for _, row := range rows {
		marketCap := decimal.Zero
		if row.MarketCap != nil {
			marketCap = *row.MarketCap
		}
		assets = append(assets, analysis.Asset{
			ID:        row.ID,
			Symbol:    strings.ToUpper(row.Symbol),
			Name:      row.Name,
			MarketCap: marketCap,
		})
	}
	return assets, nil
}

func (c *CoinGecko) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, httpError("coingecko", resp.StatusCode, payload)
	}

	return payload, nil
}

var _ Provider = (*CoinGecko)(nil)
var _ UniverseSource = (*CoinGecko)(nil)
