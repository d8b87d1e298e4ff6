package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"drawdown-scan/internal/analysis"
)

type runReportLister interface {
	ListRunReports(ctx context.Context, runID int64) ([]analysis.Report, error)
}

// Show prints archived runs, or one run's ranked reports when --run is set.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show runs")
	}
	defer closeStore()

	if opts.RunID > 0 {
		return a.showRun(ctx, store, opts.RunID)
	}

	runs, err := store.ListRecentRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "no runs found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tStarted (UTC)\tWindow\tProvider\tBasis\tTarget\tAnalyzed\tSkipped")
	for _, run := range runs {
		target := "-"
		if run.TargetDate != nil {
			target = run.TargetDate.Format("2006-01-02")
		}
		fmt.Fprintf(writer, "%d\t%s\t%s..%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339),
			run.WindowStart.UTC().Format("2006-01-02"),
			run.WindowEnd.UTC().Format("2006-01-02"),
			run.Provider,
			run.Basis,
			target,
			run.Analyzed,
			run.Skipped,
		)
	}
	return writer.Flush()
}

func (a *App) showRun(ctx context.Context, store runReportLister, runID int64) error {
	reports, err := store.ListRunReports(ctx, runID)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintf(os.Stdout, "run %d has no reports\n", runID)
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "#\tSymbol\tName\tReturn%\tPeakDate\tTroughDate\tDrawdown%")
	for i, rep := range reports {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			rep.Asset.Symbol,
			rep.Asset.Name,
			fmtOptPct(rep.TotalReturnPct),
			rep.PeakDate.Format("2006-01-02"),
			rep.TroughDate.Format("2006-01-02"),
			fmtDrawdown(rep),
		)
	}
	return writer.Flush()
}
