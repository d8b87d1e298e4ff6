package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"drawdown-scan/internal/analysis"
)

func reportWithReturn(symbol string, cap int64, pct *float64) analysis.Report {
	rep := analysis.Report{
		Asset: analysis.Asset{
			Symbol:    symbol,
			Name:      symbol,
			MarketCap: decimal.NewFromInt(cap),
		},
	}
	if pct != nil {
		v := decimal.NewFromFloat(*pct)
		rep.TotalReturnPct = &v
	}
	return rep
}

func pctOf(v float64) *float64 { return &v }

func TestSummarizeSkipsUnsetAndCounts(t *testing.T) {
	reports := []analysis.Report{
		reportWithReturn("AAA", 400, pctOf(10)),
		reportWithReturn("BBB", 300, pctOf(-5)),
		reportWithReturn("CCC", 200, pctOf(0)),
		reportWithReturn("DDD", 100, nil),
	}

	s := Summarize(reports, TotalReturn)

	if s.Count != 3 {
		t.Fatalf("count = %d, want 3 (unset column skipped)", s.Count)
	}
	// (10 - 5 + 0) / 3
	if s.Mean == nil || s.Mean.StringFixed(4) != "1.6667" {
		t.Fatalf("mean = %v, want 1.6667", s.Mean)
	}
	if s.Median == nil || !s.Median.IsZero() {
		t.Fatalf("median = %v, want 0", s.Median)
	}
	if s.Positive != 1 || s.Negative != 1 {
		t.Fatalf("positive/negative = %d/%d, want 1/1 (zero counts in neither)", s.Positive, s.Negative)
	}
	if s.Best == nil || s.Best.Asset.Symbol != "AAA" {
		t.Fatalf("best = %+v, want AAA", s.Best)
	}
	if s.Worst == nil || s.Worst.Asset.Symbol != "BBB" {
		t.Fatalf("worst = %+v, want BBB", s.Worst)
	}
}

func TestSummarizeEmptyColumn(t *testing.T) {
	reports := []analysis.Report{
		reportWithReturn("AAA", 400, nil),
		reportWithReturn("BBB", 300, nil),
	}

	s := Summarize(reports, TotalReturn)

	if s.Count != 0 {
		t.Fatalf("count = %d, want 0", s.Count)
	}
	if s.Mean != nil || s.Median != nil {
		t.Fatal("empty column must leave mean and median unset, not zero or NaN")
	}
	if s.Best != nil || s.Worst != nil {
		t.Fatal("empty column must leave best and worst unset")
	}
}

func TestSummarizeMedianEvenCount(t *testing.T) {
	reports := []analysis.Report{
		reportWithReturn("AAA", 400, pctOf(1)),
		reportWithReturn("BBB", 300, pctOf(9)),
		reportWithReturn("CCC", 200, pctOf(3)),
		reportWithReturn("DDD", 100, pctOf(7)),
	}

	s := Summarize(reports, TotalReturn)

	// Sorted values 1,3,7,9: median is the mean of 3 and 7.
	if s.Median == nil || s.Median.StringFixed(2) != "5.00" {
		t.Fatalf("median = %v, want 5.00", s.Median)
	}
}

func TestSummarizeTiesResolveToFirstInOrder(t *testing.T) {
	reports := []analysis.Report{
		reportWithReturn("AAA", 400, pctOf(10)),
		reportWithReturn("BBB", 300, pctOf(10)),
		reportWithReturn("CCC", 200, pctOf(-10)),
		reportWithReturn("DDD", 100, pctOf(-10)),
	}

	s := Summarize(reports, TotalReturn)

	if s.Best.Asset.Symbol != "AAA" {
		t.Fatalf("tied best must keep the first report, got %s", s.Best.Asset.Symbol)
	}
	if s.Worst.Asset.Symbol != "CCC" {
		t.Fatalf("tied worst must keep the first report, got %s", s.Worst.Asset.Symbol)
	}
}

func TestRankDescendingAndStable(t *testing.T) {
	reports := []analysis.Report{
		reportWithReturn("LOW", 100, nil),
		reportWithReturn("TIE1", 500, nil),
		reportWithReturn("HIGH", 900, nil),
		reportWithReturn("TIE2", 500, nil),
	}

	Rank(reports)

	got := make([]string, 0, len(reports))
	for _, r := range reports {
		got = append(got, r.Asset.Symbol)
	}
	want := []string{"HIGH", "TIE1", "TIE2", "LOW"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
