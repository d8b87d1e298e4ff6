package analysis

// Analyze reduces one ordered price series to a drawdown report.
//
// The peak is the highest High over the whole window; the trough is the
// lowest Low over [peakIndex, end]. The trough scan includes the peak's own
// bar to capture a same-day reversal. Both scans update only on strict
// improvement, so equal extremes resolve to the earliest occurrence and the
// result is deterministic for any input.
func Analyze(asset Asset, series []PricePoint, basis StartBasis) (Report, error) {
	if len(series) == 0 {
		return Report{}, ErrNoData
	}

	startPrice := series[0].Close
	if basis == StartOpen {
		startPrice = series[0].Open
	}
	currentPrice := series[len(series)-1].Close

	peak := highestHigh(series)
	trough := lowestLow(series[peak.index:])

	rep := Report{
		Asset:        asset,
		StartPrice:   startPrice,
		CurrentPrice: currentPrice,
		PeakPrice:    peak.price,
		PeakDate:     peak.at,
		TroughPrice:  trough.price,
		TroughDate:   trough.at,
	}

	rep.TotalReturnPct = pctChange(currentPrice, startPrice)
	rep.DrawdownPct = pctChange(trough.price, peak.price)
	if rep.TotalReturnPct == nil || rep.DrawdownPct == nil {
		rep.Degenerate = true
	}
	if rep.DrawdownPct != nil && rep.DrawdownPct.IsPositive() {
		// A low above the period's high means the feed is inconsistent.
		rep.Anomalous = true
	}

	return rep, nil
}
