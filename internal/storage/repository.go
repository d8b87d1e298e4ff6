package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"drawdown-scan/internal/analysis"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertRunSQL = `INSERT INTO analysis_runs (
        started_at,
        window_start,
        window_end,
        provider,
        basis,
        target_date,
        analyzed,
        skipped,
        summary_field
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    RETURNING id;`

	insertReportSQL = `INSERT INTO drawdown_reports (
        run_id,
        rank,
        asset_id,
        symbol,
        name,
        market_cap,
        start_price,
        current_price,
        total_return_pct,
        peak_price,
        peak_date,
        trough_price,
        trough_date,
        drawdown_pct,
        anomalous,
        target_price,
        start_to_target_pct,
        sub_peak_price,
        sub_peak_date,
        high_to_target_pct
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20
    );`

	listRecentRunsSQL = `SELECT
        id,
        started_at,
        window_start,
        window_end,
        provider,
        basis,
        target_date,
        analyzed,
        skipped,
        summary_field,
        created_at
    FROM analysis_runs
    ORDER BY started_at DESC
    LIMIT $1;`

	latestRunIDSQL = `SELECT id FROM analysis_runs ORDER BY started_at DESC LIMIT 1;`

	listRunReportsSQL = `SELECT
        asset_id,
        symbol,
        name,
        market_cap,
        start_price,
        current_price,
        total_return_pct,
        peak_price,
        peak_date,
        trough_price,
        trough_date,
        drawdown_pct,
        anomalous,
        target_price,
        start_to_target_pct,
        sub_peak_price,
        sub_peak_date,
        high_to_target_pct
    FROM drawdown_reports
    WHERE run_id = $1
    ORDER BY rank;`
)

// RunArchive defines operations for archiving and browsing analysis runs.
type RunArchive interface {
	InsertRun(ctx context.Context, run RunRecord) (int64, error)
	InsertReports(ctx context.Context, runID int64, reports []analysis.Report) error
	ListRecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	LatestRunID(ctx context.Context) (int64, error)
	ListRunReports(ctx context.Context, runID int64) ([]analysis.Report, error)
}

// Store archives analysis runs and their per-asset reports.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertRun persists a run header and returns its id.
func (s *Store) InsertRun(ctx context.Context, run RunRecord) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var targetDate interface{}
	if run.TargetDate != nil {
		targetDate = *run.TargetDate
	}

	var id int64
	scanErr := pool.QueryRow(ctx, insertRunSQL,
		run.StartedAt,
		run.WindowStart,
		run.WindowEnd,
		run.Provider,
		run.Basis,
		targetDate,
		run.Analyzed,
		run.Skipped,
		run.SummaryField,
	).Scan(&id)
	if scanErr != nil {
		return 0, fmt.Errorf("insert run: %w", scanErr)
	}
	return id, nil
}

// InsertReports persists the ranked reports of one run.
func (s *Store) InsertReports(ctx context.Context, runID int64, reports []analysis.Report) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	for rank, rep := range reports {
		_, execErr := pool.Exec(ctx, insertReportSQL,
			runID,
			rank+1,
			rep.Asset.ID,
			rep.Asset.Symbol,
			rep.Asset.Name,
			rep.Asset.MarketCap.String(),
			rep.StartPrice.String(),
			rep.CurrentPrice.String(),
			decimalArg(rep.TotalReturnPct),
			rep.PeakPrice.String(),
			rep.PeakDate,
			rep.TroughPrice.String(),
			rep.TroughDate,
			decimalArg(rep.DrawdownPct),
			rep.Anomalous,
			decimalArg(rep.TargetPrice),
			decimalArg(rep.StartToTargetPct),
			decimalArg(rep.SubPeakPrice),
			timeArg(rep.SubPeakDate),
			decimalArg(rep.HighToTargetPct),
		)
		if execErr != nil {
			return fmt.Errorf("insert report for %s: %w", rep.Asset.Symbol, execErr)
		}
	}
	return nil
}

// ListRecentRuns lists run headers, newest first.
func (s *Store) ListRecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRunsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent runs: %w", queryErr)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0, limit)
	for rows.Next() {
		var rec RunRecord
		var targetDate sql.NullTime
		if err := rows.Scan(
			&rec.ID,
			&rec.StartedAt,
			&rec.WindowStart,
			&rec.WindowEnd,
			&rec.Provider,
			&rec.Basis,
			&targetDate,
			&rec.Analyzed,
			&rec.Skipped,
			&rec.SummaryField,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if targetDate.Valid {
			t := targetDate.Time
			rec.TargetDate = &t
		}
		runs = append(runs, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return runs, nil
}

// LatestRunID returns the id of the most recent run.
func (s *Store) LatestRunID(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var id int64
	if scanErr := pool.QueryRow(ctx, latestRunIDSQL).Scan(&id); scanErr != nil {
		return 0, fmt.Errorf("latest run id: %w", scanErr)
	}
	return id, nil
}

// ListRunReports reconstructs one run's reports in rank order.
func (s *Store) ListRunReports(ctx context.Context, runID int64) ([]analysis.Report, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRunReportsSQL, runID)
	if queryErr != nil {
		return nil, fmt.Errorf("list run reports: %w", queryErr)
	}
	defer rows.Close()

	reports := make([]analysis.Report, 0, 128)
	for rows.Next() {
		rep, scanErr := scanReport(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		reports = append(reports, rep)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return reports, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (analysis.Report, error) {
	var rep analysis.Report
	var marketCap, startPrice, currentPrice, peakPrice, troughPrice string
	var totalReturn, drawdown, targetPrice, startToTarget, subPeak, highToTarget sql.NullString
	var subPeakDate sql.NullTime

	if err := row.Scan(
		&rep.Asset.ID,
		&rep.Asset.Symbol,
		&rep.Asset.Name,
		&marketCap,
		&startPrice,
		&currentPrice,
		&totalReturn,
		&peakPrice,
		&rep.PeakDate,
		&troughPrice,
		&rep.TroughDate,
		&drawdown,
		&rep.Anomalous,
		&targetPrice,
		&startToTarget,
		&subPeak,
		&subPeakDate,
		&highToTarget,
	); err != nil {
		return analysis.Report{}, err
	}

	var convErr error
	if rep.Asset.MarketCap, convErr = decimal.NewFromString(marketCap); convErr != nil {
		return analysis.Report{}, fmt.Errorf("parse market cap: %w", convErr)
	}
	if rep.StartPrice, convErr = decimal.NewFromString(startPrice); convErr != nil {
		return analysis.Report{}, fmt.Errorf("parse start price: %w", convErr)
	}
	if rep.CurrentPrice, convErr = decimal.NewFromString(currentPrice); convErr != nil {
		return analysis.Report{}, fmt.Errorf("parse current price: %w", convErr)
	}
	if rep.PeakPrice, convErr = decimal.NewFromString(peakPrice); convErr != nil {
		return analysis.Report{}, fmt.Errorf("parse peak price: %w", convErr)
	}
	if rep.TroughPrice, convErr = decimal.NewFromString(troughPrice); convErr != nil {
		return analysis.Report{}, fmt.Errorf("parse trough price: %w", convErr)
	}

	for _, opt := range []struct {
		src  sql.NullString
		dest **decimal.Decimal
		name string
	}{
		{totalReturn, &rep.TotalReturnPct, "total return"},
		{drawdown, &rep.DrawdownPct, "drawdown"},
		{targetPrice, &rep.TargetPrice, "target price"},
		{startToTarget, &rep.StartToTargetPct, "start to target"},
		{subPeak, &rep.SubPeakPrice, "sub peak price"},
		{highToTarget, &rep.HighToTargetPct, "high to target"},
	} {
		if !opt.src.Valid {
			continue
		}
		d, err := decimal.NewFromString(opt.src.String)
		if err != nil {
			return analysis.Report{}, fmt.Errorf("parse %s: %w", opt.name, err)
		}
		*opt.dest = &d
	}

	if subPeakDate.Valid {
		t := subPeakDate.Time
		rep.SubPeakDate = &t
	}

	return rep, nil
}

func decimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func timeArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

var _ RunArchive = (*Store)(nil)
