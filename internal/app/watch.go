package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"drawdown-scan/internal/scheduler"
)

// Watch re-runs the analysis batch on the configured cadence until
// interrupted. Each cycle is an independent run; a failing cycle is logged
// by the scheduler and the loop continues.
func (a *App) Watch(ctx context.Context, opts AnalyzeOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		StartupDelay: a.Config.Watch.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Dur("interval", a.Config.Watch.Interval).Msg("starting watch loop")
	err := sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		return a.Analyze(ctx, opts)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch loop terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch loop stopped")
	return nil
}
