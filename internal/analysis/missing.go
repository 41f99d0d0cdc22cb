package analysis

import (
	"math"
	"sort"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
)

// MissingReport counts absent cells per sensor on the indexed series. The
// report is sorted descending by count; equal counts keep sensor order.
func MissingReport(f *core.Frame) pipeline.MissingReport {
	report := pipeline.MissingReport{Rows: f.Len()}
	for _, s := range f.Sensors {
		count := f.AbsentCount(s)
		rate := 0.0
		if f.Len() > 0 {
			rate = round4(float64(count) / float64(f.Len()))
		}
		report.Per = append(report.Per, pipeline.MissingEntry{Sensor: s, Count: count, Rate: rate})
	}
	sort.SliceStable(report.Per, func(i, j int) bool {
		return report.Per[i].Count > report.Per[j].Count
	})
	return report
}

func round4(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*1e4) / 1e4
}
