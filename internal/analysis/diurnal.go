package analysis

import (
	"github.com/montanaflynn/stats"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
)

// DiurnalProfile groups rows by hour-of-day (0-23, independent of date) and
// averages each sensor across all rows sharing that hour. The output always
// has exactly 24 rows; an hour with no rows carries the absent marker.
func DiurnalProfile(f *core.Frame) pipeline.DiurnalProfile {
	hours := make([]int, 24)
	for h := range hours {
		hours[h] = h
	}
	profile := pipeline.DiurnalProfile{
		Hours:   hours,
		Sensors: append([]core.SensorID(nil), f.Sensors...),
		Mean:    make(map[core.SensorID][]float64, len(f.Sensors)),
	}

	for _, s := range f.Sensors {
		col := f.Column(s)
		groups := make([][]float64, 24)
		for i, ts := range f.Index {
			if core.IsAbsent(col[i]) {
				continue
			}
			h := ts.Hour()
			groups[h] = append(groups[h], col[i])
		}
		means := make([]float64, 24)
		for h := range groups {
			if len(groups[h]) == 0 {
				means[h] = core.Absent()
				continue
			}
			m, err := stats.Mean(stats.Float64Data(groups[h]))
			if err != nil {
				means[h] = core.Absent()
				continue
			}
			means[h] = m
		}
		profile.Mean[s] = means
	}
	return profile
}
