package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"drawdown-scan/internal/aggregate"
	"drawdown-scan/internal/analysis"
	"drawdown-scan/internal/config"
	"drawdown-scan/internal/fetcher"
	"drawdown-scan/internal/universe"
)

// SkipReason classifies why an asset produced no report.
type SkipReason string

const (
	// SkipNoData covers an empty series from the provider.
	SkipNoData SkipReason = "no_data"
	// SkipProviderError covers HTTP failures, malformed payloads, and a
	// second rate-limit hit after the cooldown retry.
	SkipProviderError SkipReason = "provider_error"
)

// Skip records one excluded asset and its cause.
type Skip struct {
	Asset  analysis.Asset
	Reason SkipReason
	Cause  string
}

// RunResult is the in-memory output of one full analysis pass.
type RunResult struct {
	StartedAt   time.Time
	WindowStart time.Time
	WindowEnd   time.Time
	TargetDay   *time.Time
	Provider    string
	Basis       analysis.StartBasis

	// Reports are ranked descending by market cap.
	Reports []analysis.Report
	Skips   []Skip

	// Summary aggregates SummaryField across Reports.
	SummaryField string
	Summary      aggregate.Summary
}

// Analyzed returns the number of assets that produced a report.
func (r *RunResult) Analyzed() int { return len(r.Reports) }

// Service runs the drawdown analysis batch: filter the universe, fetch each
// series in turn, reduce it to a report, then rank and summarize.
//
// Processing is deliberately sequential with a fixed inter-request delay;
// the upstream APIs rate-limit per IP and a parallel fan-out would only
// convert the whole batch into 429s.
type Service struct {
	provider  fetcher.Provider
	filter    *universe.Filter
	basis     analysis.StartBasis
	targetDay *time.Time
	window    time.Duration
	delay     time.Duration
	cooldown  time.Duration
	maxAssets int
	logger    zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs the analysis service around one provider.
func New(cfg *config.Config, provider fetcher.Provider, logger zerolog.Logger) *Service {
	return &Service{
		provider:  provider,
		filter:    universe.NewFilter(cfg.Universe.ExcludeSymbols, cfg.Universe.ExcludeNames),
		basis:     analysis.StartBasis(cfg.Analysis.StartPriceBasis),
		targetDay: cfg.Analysis.TargetDay(),
		window:    time.Duration(cfg.Analysis.WindowDays) * 24 * time.Hour,
		delay:     cfg.Provider.RequestDelay,
		cooldown:  cfg.Provider.RateLimitCooldown,
		maxAssets: cfg.Analysis.MaxAssets,
		logger:    logger.With().Str("component", "service").Logger(),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Run executes one batch over the given universe. Only a cancelled context
// terminates the loop early; every per-asset failure is contained as a skip.
func (s *Service) Run(ctx context.Context, assets []analysis.Asset) (*RunResult, error) {
	startedAt := s.now().UTC()
	result := &RunResult{
		StartedAt:   startedAt,
		WindowStart: startedAt.Add(-s.window),
		WindowEnd:   startedAt,
		TargetDay:   s.targetDay,
		Provider:    s.provider.Name(),
		Basis:       s.basis,
	}

	candidates := s.filter.Apply(assets)
	s.logger.Info().
		Int("universe", len(assets)).
		Int("candidates", len(candidates)).
		Int("max_assets", s.maxAssets).
		Str("provider", result.Provider).
		Msg("starting analysis batch")

	for i, asset := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return nil, err
			}
		}

		rep, skip := s.processAsset(ctx, asset, result.WindowStart, result.WindowEnd)
		if skip != nil {
			result.Skips = append(result.Skips, *skip)
			s.logger.Warn().
				Str("symbol", asset.Symbol).
				Str("reason", string(skip.Reason)).
				Str("cause", skip.Cause).
				Msg("asset skipped")
			continue
		}

		result.Reports = append(result.Reports, *rep)
		logDrawdown(s.logger, *rep)

		if len(result.Reports) >= s.maxAssets {
			s.logger.Info().Int("max_assets", s.maxAssets).Msg("result cap reached")
			break
		}
	}

	aggregate.Rank(result.Reports)
	result.SummaryField, result.Summary = s.summarize(result.Reports)

	s.logger.Info().
		Int("analyzed", result.Analyzed()).
		Int("skipped", len(result.Skips)).
		Str("summary_field", result.SummaryField).
		Msg("analysis batch complete")

	return result, nil
}

// processAsset fetches and reduces one asset. All failures, including the
// post-cooldown rate-limit retry, surface as a Skip so the batch continues.
func (s *Service) processAsset(ctx context.Context, asset analysis.Asset, from, to time.Time) (*analysis.Report, *Skip) {
	series, err := s.fetchWithRetry(ctx, asset, from, to)
	if err != nil {
		return nil, &Skip{Asset: asset, Reason: SkipProviderError, Cause: err.Error()}
	}
	if len(series) == 0 {
		return nil, &Skip{Asset: asset, Reason: SkipNoData, Cause: "provider returned no points"}
	}

	rep, err := analysis.Analyze(asset, series, s.basis)
	if err != nil {
		if errors.Is(err, analysis.ErrNoData) {
			return nil, &Skip{Asset: asset, Reason: SkipNoData, Cause: err.Error()}
		}
		return nil, &Skip{Asset: asset, Reason: SkipProviderError, Cause: err.Error()}
	}

	if s.targetDay != nil {
		analysis.ApplyTarget(&rep, series, *s.targetDay)
	}

	return &rep, nil
}

func (s *Service) fetchWithRetry(ctx context.Context, asset analysis.Asset, from, to time.Time) ([]analysis.PricePoint, error) {
	series, err := s.provider.FetchSeries(ctx, asset, from, to)
	if err == nil || !errors.Is(err, fetcher.ErrRateLimited) {
		return series, err
	}

	s.logger.Warn().
		Str("symbol", asset.Symbol).
		Dur("cooldown", s.cooldown).
		Msg("rate limited, retrying once after cooldown")
	if err := s.sleep(ctx, s.cooldown); err != nil {
		return nil, err
	}

	series, err = s.provider.FetchSeries(ctx, asset, from, to)
	if err != nil && errors.Is(err, fetcher.ErrRateLimited) {
		return nil, fmt.Errorf("still rate limited after retry: %w", err)
	}
	return series, err
}

// summarize picks the column the original workflow reported on: the
// target-anchored return when a target date is configured, the whole-window
// return otherwise.
func (s *Service) summarize(reports []analysis.Report) (string, aggregate.Summary) {
	if s.targetDay != nil {
		return "start_to_target_pct", aggregate.Summarize(reports, aggregate.StartToTarget)
	}
	return "total_return_pct", aggregate.Summarize(reports, aggregate.TotalReturn)
}

func logDrawdown(logger zerolog.Logger, rep analysis.Report) {
	evt := logger.Info().
		Str("symbol", rep.Asset.Symbol).
		Str("peak_date", rep.PeakDate.Format("2006-01-02")).
		Str("trough_date", rep.TroughDate.Format("2006-01-02"))
	if rep.DrawdownPct != nil {
		evt = evt.Str("drawdown_pct", rep.DrawdownPct.StringFixed(2))
	}
	if rep.Anomalous {
		evt = evt.Bool("anomalous", true)
	}
	evt.Msg("asset analyzed")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
