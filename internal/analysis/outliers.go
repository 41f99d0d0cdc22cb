package analysis

import (
	"sort"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
)

const iqrMultiplier = 1.5

// DetectOutliers computes per-sensor robust bounds on the daily grid and
// returns the boolean flag matrix, the clipped series and the bounds. Bounds
// use only non-absent values; absent cells are never flagged and stay absent
// in the clipped grid. A sensor with no observations keeps its column
// unmodified and gets no bounds entry.
func DetectOutliers(daily *core.Frame) pipeline.OutlierReport {
	flags := core.NewFlagFrame(daily.Index, daily.Sensors)
	clipped := daily.Clone()
	bounds := make(map[core.SensorID]pipeline.Bounds, len(daily.Sensors))

	for _, s := range daily.Sensors {
		observed := daily.Observed(s)
		if len(observed) == 0 {
			continue
		}
		sort.Float64s(observed)
		q1 := quantileLinear(observed, 0.25)
		q3 := quantileLinear(observed, 0.75)
		iqr := q3 - q1
		lo := q1 - iqrMultiplier*iqr
		hi := q3 + iqrMultiplier*iqr
		bounds[s] = pipeline.Bounds{Lower: lo, Upper: hi}

		src := daily.Column(s)
		dst := clipped.Column(s)
		for i, v := range src {
			if core.IsAbsent(v) {
				continue
			}
			if v < lo {
				flags.Set(s, i, true)
				dst[i] = lo
			} else if v > hi {
				flags.Set(s, i, true)
				dst[i] = hi
			}
		}
	}
	return pipeline.OutlierReport{Flags: flags, Clipped: clipped, Bounds: bounds}
}

// quantileLinear returns the p-quantile of sorted data with linear
// interpolation between order statistics: position h = p*(n-1), value
// x[floor(h)] + (h-floor(h))*(x[floor(h)+1]-x[floor(h)]).
func quantileLinear(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(h)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
