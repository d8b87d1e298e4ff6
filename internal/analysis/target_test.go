package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestApplyTargetMissLeavesReportUntouched(t *testing.T) {
	series := []PricePoint{
		candle(1, 95, 100, 90, 95),
		candle(2, 95, 120, 80, 100),
	}
	rep, err := Analyze(testAsset, series, StartClose)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ApplyTarget(&rep, series, day(9))

	if rep.TargetPrice != nil || rep.StartToTargetPct != nil || rep.SubPeakPrice != nil || rep.HighToTargetPct != nil {
		t.Fatal("a target date outside the series must not set any target metrics")
	}
}

func TestApplyTargetMatchesByCalendarDay(t *testing.T) {
	series := []PricePoint{
		candle(1, 95, 100, 90, 95),
		candle(2, 95, 120, 80, 100),
		candle(3, 100, 110, 70, 90),
		candle(4, 90, 95, 85, 92),
	}
	rep, err := Analyze(testAsset, series, StartClose)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Midday timestamp must still resolve to the d3 bar.
	ApplyTarget(&rep, series, time.Date(2025, 9, 3, 14, 30, 0, 0, time.UTC))

	if rep.TargetPrice == nil || !rep.TargetPrice.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("target price = %v, want 90", rep.TargetPrice)
	}
	// (90-95)/95 * 100
	if got := rep.StartToTargetPct.StringFixed(2); got != "-5.26" {
		t.Fatalf("start-to-target = %s, want -5.26", got)
	}
	// Sub-window peak over d1..d3 is the d2 high.
	if rep.SubPeakPrice == nil || !rep.SubPeakPrice.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("sub-peak = %v, want 120", rep.SubPeakPrice)
	}
	if rep.SubPeakDate == nil || !rep.SubPeakDate.Equal(day(2)) {
		t.Fatalf("sub-peak date = %v, want d2", rep.SubPeakDate)
	}
	// (90-120)/120 * 100
	if got := rep.HighToTargetPct.StringFixed(2); got != "-25.00" {
		t.Fatalf("high-to-target = %s, want -25.00", got)
	}
}

func TestApplyTargetOnSinglePriceSeries(t *testing.T) {
	series := []PricePoint{
		SinglePrice(day(1), decimal.NewFromInt(50)),
		SinglePrice(day(2), decimal.NewFromInt(60)),
	}
	rep, err := Analyze(testAsset, series, StartClose)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ApplyTarget(&rep, series, day(2))

	// The target bar itself is the sub-window high, so the drop from it is zero.
	if rep.HighToTargetPct == nil || !rep.HighToTargetPct.IsZero() {
		t.Fatalf("high-to-target on a rising single-price series = %v, want 0", rep.HighToTargetPct)
	}
	if got := rep.StartToTargetPct.StringFixed(2); got != "20.00" {
		t.Fatalf("start-to-target = %s, want 20.00", got)
	}
}

func TestApplyTargetZeroSubPeak(t *testing.T) {
	series := []PricePoint{
		candle(1, 0, 0, 0, 0),
		candle(2, 5, 12, 4, 8),
	}
	rep, err := Analyze(testAsset, series, StartClose)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ApplyTarget(&rep, series, day(1))

	if rep.HighToTargetPct != nil {
		t.Fatal("zero sub-peak must omit the metric")
	}
	if !rep.Degenerate {
		t.Fatal("omitting a metric must mark the report degenerate")
	}
}
