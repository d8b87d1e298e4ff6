package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"drawdown-scan/internal/analysis"
)

// ErrRateLimited signals an HTTP 429 from the provider. The engine retries
// exactly once after a cooldown before giving up on the asset.
var ErrRateLimited = errors.New("fetcher: provider rate limited")

// Provider returns the ordered price series for one asset over a window.
type Provider interface {
	FetchSeries(ctx context.Context, asset analysis.Asset, from, to time.Time) ([]analysis.PricePoint, error)
	Name() string
}

// UniverseSource returns the top assets ranked by market capitalization.
type UniverseSource interface {
	TopAssets(ctx context.Context, limit int) ([]analysis.Asset, error)
}

func httpError(provider string, status int, payload []byte) error {
	body := strings.TrimSpace(string(payload))
	if len(body) > 200 {
		body = body[:200]
	}
	if body != "" {
		return fmt.Errorf("%s api error (%d): %s", provider, status, body)
	}
	return fmt.Errorf("%s api error (%d)", provider, status)
}
