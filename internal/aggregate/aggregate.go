package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"drawdown-scan/internal/analysis"
)

// Field selects one optional percentage column of a report.
type Field func(r analysis.Report) *decimal.Decimal

// TotalReturn selects the window start to latest close change.
func TotalReturn(r analysis.Report) *decimal.Decimal { return r.TotalReturnPct }

// Drawdown selects the global peak-to-trough drawdown.
func Drawdown(r analysis.Report) *decimal.Decimal { return r.DrawdownPct }

// StartToTarget selects the start to target-date change.
func StartToTarget(r analysis.Report) *decimal.Decimal { return r.StartToTargetPct }

// HighToTarget selects the interim-high to target-date drawdown.
func HighToTarget(r analysis.Report) *decimal.Decimal { return r.HighToTargetPct }

// Extreme pairs an asset with its value on the summarized column.
type Extreme struct {
	Asset analysis.Asset
	Value decimal.Decimal
}

// Summary aggregates one percentage column across the universe. Mean and
// Median are nil when no report carries the column, never NaN.
type Summary struct {
	Count    int
	Mean     *decimal.Decimal
	Median   *decimal.Decimal
	Positive int
	Negative int
	Best     *Extreme
	Worst    *Extreme
}

// Rank stable-sorts reports descending by market cap in place.
func Rank(reports []analysis.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Asset.MarketCap.GreaterThan(reports[j].Asset.MarketCap)
	})
}

// Summarize computes statistics over the chosen column, skipping reports
// where it is unset. Best/worst ties resolve to the first occurrence in the
// given order, so callers should Rank first.
func Summarize(reports []analysis.Report, field Field) Summary {
	values := make([]decimal.Decimal, 0, len(reports))
	var sum decimal.Decimal
	var summary Summary

	for _, rep := range reports {
		v := field(rep)
		if v == nil {
			continue
		}

		values = append(values, *v)
		sum = sum.Add(*v)

		switch v.Sign() {
		case 1:
			summary.Positive++
		case -1:
			summary.Negative++
		}

		if summary.Best == nil || v.GreaterThan(summary.Best.Value) {
			summary.Best = &Extreme{Asset: rep.Asset, Value: *v}
		}
		if summary.Worst == nil || v.LessThan(summary.Worst.Value) {
			summary.Worst = &Extreme{Asset: rep.Asset, Value: *v}
		}
	}

	summary.Count = len(values)
	if summary.Count == 0 {
		return summary
	}

	mean := sum.Div(decimal.NewFromInt(int64(summary.Count)))
	summary.Mean = &mean

	median := medianOf(values)
	summary.Median = &median

	return summary
}

func medianOf(values []decimal.Decimal) decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}
