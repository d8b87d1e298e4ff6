package analysis

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoData indicates the provider returned an empty series for an asset.
// Callers skip the asset; it never aborts a batch.
var ErrNoData = errors.New("analysis: series contains no points")

// Asset identifies one universe entry. Immutable for the duration of a run.
type Asset struct {
	ID        string
	Symbol    string
	Name      string
	MarketCap decimal.Decimal
}

// PricePoint is one observation of an ordered series. Single-price providers
// carry the same value in all four fields so the peak/trough scans can always
// read High and Low.
type PricePoint struct {
	Time  time.Time
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// SinglePrice builds a PricePoint from a lone price observation.
func SinglePrice(t time.Time, price decimal.Decimal) PricePoint {
	return PricePoint{Time: t, Open: price, High: price, Low: price, Close: price}
}

// Day renders the point's calendar day in UTC.
func (p PricePoint) Day() string {
	return p.Time.UTC().Format("2006-01-02")
}

// StartBasis selects which field of the earliest point anchors startPrice.
type StartBasis string

const (
	StartOpen  StartBasis = "open"
	StartClose StartBasis = "close"
)

// extremum carries the scan state of a single linear pass: the best value
// seen so far, where it sits, and when it happened.
type extremum struct {
	price decimal.Decimal
	index int
	at    time.Time
}

// highestHigh finds the maximum High over points. Only a strict improvement
// updates the record, so the earliest occurrence of the maximum wins.
func highestHigh(points []PricePoint) extremum {
	best := extremum{price: points[0].High, index: 0, at: points[0].Time}
	for i := 1; i < len(points); i++ {
		if points[i].High.GreaterThan(best.price) {
			best = extremum{price: points[i].High, index: i, at: points[i].Time}
		}
	}
	return best
}

// lowestLow finds the minimum Low over points, earliest occurrence winning.
func lowestLow(points []PricePoint) extremum {
	best := extremum{price: points[0].Low, index: 0, at: points[0].Time}
	for i := 1; i < len(points); i++ {
		if points[i].Low.LessThan(best.price) {
			best = extremum{price: points[i].Low, index: i, at: points[i].Time}
		}
	}
	return best
}

var dec100 = decimal.NewFromInt(100)

// pctChange returns (current-base)/base in percent, or nil when base is zero
// so a degenerate series never produces an unbounded metric.
func pctChange(current, base decimal.Decimal) *decimal.Decimal {
	if base.IsZero() {
		return nil
	}
	pct := current.Sub(base).Div(base).Mul(dec100)
	return &pct
}
