package app

import (
	"context"
	"errors"
	"time"

	"drawdown-scan/internal/analysis"
	"drawdown-scan/internal/fetcher"
	"drawdown-scan/internal/universe"
)

// FetchUniverse snapshots the top assets by market cap into the universe
// CSV consumed by analyze. The same single-retry-after-429 contract applies
// as for series fetches.
func (a *App) FetchUniverse(ctx context.Context, opts FetchUniverseOptions) error {
	top := opts.Top
	if top <= 0 {
		top = a.Config.Universe.Top
	}
	outPath := opts.OutPath
	if outPath == "" {
		outPath = a.Config.Universe.File
	}

	source := a.newUniverseSource()

	assets, err := a.topAssetsWithRetry(ctx, source, top)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return errors.New("universe source returned no assets")
	}

	if err := universe.WriteCSV(outPath, assets); err != nil {
		return err
	}

	a.Logger.Info().Int("assets", len(assets)).Str("path", outPath).Msg("universe written")
	return nil
}

func (a *App) topAssetsWithRetry(ctx context.Context, source fetcher.UniverseSource, top int) ([]analysis.Asset, error) {
	assets, err := source.TopAssets(ctx, top)
	if err == nil || !errors.Is(err, fetcher.ErrRateLimited) {
		return assets, err
	}

	cooldown := a.Config.Provider.RateLimitCooldown
	a.Logger.Warn().Dur("cooldown", cooldown).Msg("rate limited fetching universe, retrying once")
	timer := time.NewTimer(cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return source.TopAssets(ctx, top)
}
