package analysis

import "time"

// ApplyTarget annotates rep with target-date anchored metrics.
//
// The target is matched by calendar-day equality in UTC against each point.
// A miss is not an error: the date may fall on a gap or outside the fetched
// window, and every target field simply stays unset.
//
// The sub-window peak covers [seriesStart, targetIndex] inclusive, with the
// same strict-improvement scan as the global peak. Unlike the global
// drawdown, which pairs the global peak with the best subsequent low, the
// high-to-target drawdown is anchored on the target day's close: it answers
// how much a buyer at the interim high had lost by that fixed date.
func ApplyTarget(rep *Report, series []PricePoint, targetDay time.Time) {
	day := targetDay.UTC().Format("2006-01-02")

	targetIdx := -1
	for i := range series {
		if series[i].Day() == day {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return
	}

	targetPrice := series[targetIdx].Close
	rep.TargetPrice = &targetPrice

	rep.StartToTargetPct = pctChange(targetPrice, rep.StartPrice)

	subPeak := highestHigh(series[:targetIdx+1])
	rep.SubPeakPrice = &subPeak.price
	rep.SubPeakDate = &subPeak.at

	rep.HighToTargetPct = pctChange(targetPrice, subPeak.price)
	if rep.StartToTargetPct == nil || rep.HighToTargetPct == nil {
		rep.Degenerate = true
	}
}
