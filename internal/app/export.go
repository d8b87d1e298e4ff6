package app

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"drawdown-scan/internal/analysis"
)

// Export renders an archived run as CSV and/or a PNG drawdown chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.ChartTop <= 0 {
		opts.ChartTop = a.Config.Export.ChartTop
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	defer closeStore()

	runID := opts.RunID
	if runID == 0 {
		runID, err = store.LatestRunID(ctx)
		if err != nil {
			return err
		}
	}

	reports, err := store.ListRunReports(ctx, runID)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		a.Logger.Info().Int64("run_id", runID).Msg("run has no reports to export")
		return nil
	}

	a.Logger.Info().Int64("run_id", runID).Int("reports", len(reports)).Msg("exporting run")

	if opts.CSVPath != "" {
		if err := writeReportsCSV(opts.CSVPath, reports); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeDrawdownChart(opts.PNGPath, reports, opts.ChartTop); err != nil {
			return err
		}
	}

	return nil
}

func writeReportsCSV(path string, reports []analysis.Report) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"name", "symbol", "market_cap",
		"start_price", "current_price", "total_return_pct",
		"target_price", "start_to_target_pct",
		"sub_peak_price", "sub_peak_date", "high_to_target_pct",
		"peak_price", "peak_date",
		"trough_price", "trough_date",
		"drawdown_pct", "anomalous",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rep := range reports {
		anomalous := ""
		if rep.Anomalous {
			anomalous = "true"
		}
		record := []string{
			rep.Asset.Name,
			rep.Asset.Symbol,
			rep.Asset.MarketCap.String(),
			rep.StartPrice.String(),
			rep.CurrentPrice.String(),
			csvOptPct(rep.TotalReturnPct),
			csvOptPrice(rep.TargetPrice),
			csvOptPct(rep.StartToTargetPct),
			csvOptPrice(rep.SubPeakPrice),
			csvOptDate(rep.SubPeakDate),
			csvOptPct(rep.HighToTargetPct),
			rep.PeakPrice.String(),
			rep.PeakDate.Format("2006-01-02"),
			rep.TroughPrice.String(),
			rep.TroughDate.Format("2006-01-02"),
			csvOptPct(rep.DrawdownPct),
			anomalous,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// writeDrawdownChart renders the deepest drawdowns as a bar chart, depth as
// positive percent so the bars read top-down.
func writeDrawdownChart(path string, reports []analysis.Report, top int) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	deepest := deepestDrawdowns(reports, top)
	if len(deepest) == 0 {
		return errors.New("no drawdown values to chart")
	}

	bars := make([]chart.Value, 0, len(deepest))
	for _, d := range deepest {
		bars = append(bars, chart.Value{
			Label: d.Asset.Symbol,
			Value: d.Value.Abs().InexactFloat64(),
		})
	}

	graph := chart.BarChart{
		Title:    "Peak-to-trough drawdown depth (%)",
		Width:    1280,
		Height:   720,
		BarWidth: 40,
		Bars:     bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func csvOptPct(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func csvOptPrice(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func csvOptDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
