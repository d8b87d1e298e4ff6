package fetcher

import (
	"bytes"
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

const klinesLimit = 1000

// BinanceOptions parameterise the Binance client.
type BinanceOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// QuoteSuffix is appended to the asset symbol to form the trading pair,
	// e.g. BTC + USDT -> BTCUSDT.
	QuoteSuffix string
}

// Binance fetches daily OHLC klines from the Binance spot API.
type Binance struct {
	opts    BinanceOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewBinance constructs a Binance client.
func NewBinance(opts BinanceOptions, logger zerolog.Logger) *Binance {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	if opts.QuoteSuffix == "" {
		opts.QuoteSuffix = "USDT"
	}

	return &Binance{
		opts:    opts,
		logger:  logger.With().Str("component", "binance_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Name identifies the provider in logs and archived runs.
func (b *Binance) Name() string { return "binance" }

// FetchSeries retrieves daily klines for symbol+quote over [from, to].
// A pair Binance does not list yields an API error, which the engine records
// as a per-asset skip.
func (b *Binance) FetchSeries(ctx context.Context, asset analysis.Asset, from, to time.Time) ([]analysis.PricePoint, error) {
	pair := strings.ToUpper(asset.Symbol) + b.opts.QuoteSuffix

	query := url.Values{}
	query.Set("symbol", pair)
	query.Set("interval", "1d")
	query.Set("startTime", strconv.FormatInt(from.UnixMilli(), 10))
	query.Set("endTime", strconv.FormatInt(to.UnixMilli(), 10))
	query.Set("limit", strconv.Itoa(klinesLimit))

	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", b.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := b.client.Do(req)
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
		return nil, httpError("binance", resp.StatusCode, payload)
	}

	return parseKlines(payload)
}

// parseKlines decodes the Binance kline rows:
// [ openTime, "open", "high", "low", "close", "volume", closeTime, ... ].
// Open time is a number, prices are decimal strings.
func parseKlines(payload []byte) ([]analysis.PricePoint, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var rows [][]any
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	points := make([]analysis.PricePoint, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("kline row has %d fields, want at least 5", len(row))
		}

		ts, err := klineTime(row[0])
		if err != nil {
			return nil, err
		}

		var ohlc [4]decimal.Decimal
		for i := 0; i < 4; i++ {
			ohlc[i], err = klinePrice(row[i+1])
			if err != nil {
				return nil, err
			}
		}

		points = append(points, analysis.PricePoint{
			Time:  ts,
			Open:  ohlc[0],
			High:  ohlc[1],
			Low:   ohlc[2],
			Close: ohlc[3],
		})
	}

	return points, nil
}

func klineTime(v any) (time.Time, error) {
	num, ok := v.(json.Number)
	if !ok {
		return time.Time{}, fmt.Errorf("kline open time is %T, want number", v)
	}
	ms, err := num.Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("parse kline open time: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func klinePrice(v any) (decimal.Decimal, error) {
	s, ok := v.(string)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("kline price is %T, want string", v)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse kline price %q: %w", s, err)
	}
	return d, nil
}

var _ Provider = (*Binance)(nil)
