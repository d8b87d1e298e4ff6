package analysis

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report holds the per-asset drawdown metrics for one analysis window.
// Pointer fields are metrics that can legitimately be absent: either the
// target date never matched a point, or a zero reference price made the
// ratio undefined. Absence is never encoded as a sentinel value.
type Report struct {
	Asset Asset

	StartPrice   decimal.Decimal
	CurrentPrice decimal.Decimal

	// TotalReturnPct is the window start to latest close change, percent.
	TotalReturnPct *decimal.Decimal

	// Peak is the highest High of the whole window, earliest occurrence.
	PeakPrice decimal.Decimal
	PeakDate  time.Time

	// Trough is the lowest Low at or after the peak's own bar.
	TroughPrice decimal.Decimal
	TroughDate  time.Time

	// DrawdownPct = (trough-peak)/peak, percent. Non-positive except for
	// anomalous data, which Anomalous flags instead of silently accepting.
	DrawdownPct *decimal.Decimal
	Anomalous   bool

	// Degenerate marks that a zero reference price forced at least one
	// metric to be omitted.
	Degenerate bool

	// Target-date anchored metrics, set only when the configured calendar
	// day was found in the series.
	TargetPrice      *decimal.Decimal
	StartToTargetPct *decimal.Decimal
	SubPeakPrice     *decimal.Decimal
	SubPeakDate      *time.Time
	HighToTargetPct  *decimal.Decimal
}
