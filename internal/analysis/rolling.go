package analysis

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"gridpulse/domain/core"
)

// RollingStats computes a backward-looking rolling mean and sample standard
// deviation per sensor over a time-indexed window (t-window, t]. A point
// whose window holds fewer than minObs observations gets the absent marker.
// Output columns are named <sensor>_roll<N>_mean / <sensor>_roll<N>_std where
// N is the window in hours; all mean columns precede all std columns.
func RollingStats(f *core.Frame, window time.Duration, minObs int) *core.Frame {
	hours := int(window / time.Hour)
	meanSuffix := fmt.Sprintf("_roll%d_mean", hours)
	stdSuffix := fmt.Sprintf("_roll%d_std", hours)

	outSensors := make([]core.SensorID, 0, 2*len(f.Sensors))
	for _, s := range f.Sensors {
		outSensors = append(outSensors, s+core.SensorID(meanSuffix))
	}
	for _, s := range f.Sensors {
		outSensors = append(outSensors, s+core.SensorID(stdSuffix))
	}

	idx := make([]time.Time, len(f.Index))
	copy(idx, f.Index)
	out := core.NewFrame(idx, outSensors)

	for _, s := range f.Sensors {
		col := f.Column(s)
		meanID := s + core.SensorID(meanSuffix)
		stdID := s + core.SensorID(stdSuffix)

		lo := 0 // first row with Index[lo] > Index[i]-window
		var buf []float64
		for i := range f.Index {
			cutoff := f.Index[i].Add(-window)
			for lo <= i && !f.Index[lo].After(cutoff) {
				lo++
			}
			buf = buf[:0]
			for j := lo; j <= i; j++ {
				if !core.IsAbsent(col[j]) {
					buf = append(buf, col[j])
				}
			}
			if len(buf) < minObs {
				continue
			}
			if m, err := stats.Mean(stats.Float64Data(buf)); err == nil {
				out.Set(meanID, i, m)
			}
			if sd, err := stats.StandardDeviationSample(stats.Float64Data(buf)); err == nil {
				out.Set(stdID, i, sd)
			}
		}
	}
	return out
}
