package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"drawdown-scan/internal/aggregate"
	"drawdown-scan/internal/alerting"
	"drawdown-scan/internal/analysis"
	"drawdown-scan/internal/service"
	"drawdown-scan/internal/storage"
	"drawdown-scan/internal/universe"
)

// Analyze runs one full batch: load universe, analyze every candidate,
// print the ranked table and summary, then export, archive, and alert as
// configured. A missing universe file is fatal before any network activity.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	assets, err := universe.LoadCSV(a.Config.Universe.File, a.Logger)
	if err != nil {
		return err
	}

	provider := a.newProvider()
	svc := service.New(a.Config, provider, a.Logger)

	result, err := svc.Run(ctx, assets)
	if err != nil {
		return err
	}

	printReports(result)
	printSummary(result)

	if opts.CSVPath != "" {
		if err := writeReportsCSV(opts.CSVPath, result.Reports); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.CSVPath).Int("rows", len(result.Reports)).Msg("results written")
	}

	if !opts.NoArchive {
		if err := a.archiveRun(ctx, result); err != nil {
			// Archiving is best effort; the analysis itself succeeded.
			a.Logger.Error().Err(err).Msg("failed to archive run")
		}
	}

	a.maybeAlert(ctx, result)
	return nil
}

func (a *App) archiveRun(ctx context.Context, result *service.RunResult) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; run archive disabled")
		return nil
	}
	defer closeStore()

	runID, err := store.InsertRun(ctx, storage.RunRecord{
		StartedAt:    result.StartedAt,
		WindowStart:  result.WindowStart,
		WindowEnd:    result.WindowEnd,
		Provider:     result.Provider,
		Basis:        string(result.Basis),
		TargetDate:   result.TargetDay,
		Analyzed:     result.Analyzed(),
		Skipped:      len(result.Skips),
		SummaryField: result.SummaryField,
	})
	if err != nil {
		return err
	}

	if err := store.InsertReports(ctx, runID, result.Reports); err != nil {
		return err
	}

	a.Logger.Info().Int64("run_id", runID).Msg("run archived")
	return nil
}

// maybeAlert sends the run summary when the mean drawdown across the
// universe is deeper than the configured threshold.
func (a *App) maybeAlert(ctx context.Context, result *service.RunResult) {
	if !a.Config.Alerting.Enabled {
		return
	}
	notifier := a.newNotifier()
	if notifier == nil {
		return
	}

	ddSummary := aggregate.Summarize(result.Reports, aggregate.Drawdown)
	if ddSummary.Mean == nil {
		return
	}

	threshold := decimal.NewFromFloat(a.Config.Alerting.MeanDrawdownThresholdPct)
	if ddSummary.Mean.Abs().LessThan(threshold) {
		return
	}

	note := alerting.Notification{
		CompletedAt:  time.Now().UTC(),
		Provider:     result.Provider,
		WindowStart:  result.WindowStart,
		WindowEnd:    result.WindowEnd,
		Analyzed:     result.Analyzed(),
		Skipped:      len(result.Skips),
		SummaryField: result.SummaryField,
		Summary:      result.Summary,
		ThresholdPct: threshold,
		Deepest:      deepestDrawdowns(result.Reports, 3),
	}
	if err := notifier.Notify(ctx, note); err != nil {
		a.Logger.Error().Err(err).Msg("failed to dispatch alert")
	}
}

func deepestDrawdowns(reports []analysis.Report, limit int) []aggregate.Extreme {
	withDD := make([]aggregate.Extreme, 0, len(reports))
	for _, rep := range reports {
		if rep.DrawdownPct == nil {
			continue
		}
		withDD = append(withDD, aggregate.Extreme{Asset: rep.Asset, Value: *rep.DrawdownPct})
	}
	sort.SliceStable(withDD, func(i, j int) bool {
		return withDD[i].Value.LessThan(withDD[j].Value)
	})
	if len(withDD) > limit {
		withDD = withDD[:limit]
	}
	return withDD
}

func printReports(result *service.RunResult) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	header := "#\tSymbol\tName\tMktCap\tCurrent\tReturn%\tPeak\tPeakDate\tTrough\tTroughDate\tDrawdown%"
	if result.TargetDay != nil {
		header += "\tTarget\tStartToTarget%\tHighToTarget%"
	}
	fmt.Fprintln(writer, header)

	for i, rep := range result.Reports {
		row := fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s",
			i+1,
			rep.Asset.Symbol,
			rep.Asset.Name,
			rep.Asset.MarketCap.StringFixed(0),
			rep.CurrentPrice.String(),
			fmtOptPct(rep.TotalReturnPct),
			rep.PeakPrice.String(),
			rep.PeakDate.Format("2006-01-02"),
			rep.TroughPrice.String(),
			rep.TroughDate.Format("2006-01-02"),
			fmtDrawdown(rep),
		)
		if result.TargetDay != nil {
			row += fmt.Sprintf("\t%s\t%s\t%s",
				fmtOptPrice(rep.TargetPrice),
				fmtOptPct(rep.StartToTargetPct),
				fmtOptPct(rep.HighToTargetPct),
			)
		}
		fmt.Fprintln(writer, row)
	}

	writer.Flush()
}

func printSummary(result *service.RunResult) {
	s := result.Summary
	fmt.Println()
	fmt.Printf("Summary over %s (%d of %d reports carry the column)\n",
		result.SummaryField, s.Count, result.Analyzed())
	if s.Count == 0 {
		fmt.Println("  no participants")
		return
	}
	fmt.Printf("  mean:   %s%%\n", s.Mean.StringFixed(2))
	fmt.Printf("  median: %s%%\n", s.Median.StringFixed(2))
	fmt.Printf("  up:     %d\n", s.Positive)
	fmt.Printf("  down:   %d\n", s.Negative)
	if s.Best != nil {
		fmt.Printf("  best:   %s (%s%%)\n", s.Best.Asset.Symbol, s.Best.Value.StringFixed(2))
	}
	if s.Worst != nil {
		fmt.Printf("  worst:  %s (%s%%)\n", s.Worst.Asset.Symbol, s.Worst.Value.StringFixed(2))
	}
	if len(result.Skips) > 0 {
		fmt.Printf("  skipped: %d (", len(result.Skips))
		counts := map[service.SkipReason]int{}
		for _, skip := range result.Skips {
			counts[skip.Reason]++
		}
		first := true
		for _, reason := range []service.SkipReason{service.SkipNoData, service.SkipProviderError} {
			if counts[reason] == 0 {
				continue
			}
			if !first {
				fmt.Print(", ")
			}
			fmt.Printf("%s: %d", reason, counts[reason])
			first = false
		}
		fmt.Println(")")
	}
}

func fmtOptPct(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func fmtOptPrice(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func fmtDrawdown(rep analysis.Report) string {
	s := fmtOptPct(rep.DrawdownPct)
	if rep.Anomalous {
		s += "!"
	}
	return s
}
