package analysis

import (
	"time"

	"gridpulse/domain/core"
)

// GridStep is a fixed resampling frequency.
type GridStep int

const (
	StepHour GridStep = iota
	StepDay
)

// Duration returns the width of one bucket.
func (g GridStep) Duration() time.Duration {
	if g == StepDay {
		return 24 * time.Hour
	}
	return time.Hour
}

// Floor truncates t to the bucket boundary in t's own location.
func (g GridStep) Floor(t time.Time) time.Time {
	if g == StepDay {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// Resample buckets the series onto a fixed-frequency grid, averaging the
// non-absent observations falling in each bucket per sensor. The grid spans
// from the first to the last bucket with one row per step; buckets with zero
// observations for a sensor stay absent. Resampling a grid already at the
// target frequency leaves every value unchanged.
func Resample(f *core.Frame, step GridStep) *core.Frame {
	if f.Len() == 0 {
		return core.NewFrame(nil, append([]core.SensorID(nil), f.Sensors...))
	}

	start := step.Floor(f.Index[0])
	end := step.Floor(f.Index[f.Len()-1])
	width := step.Duration()
	buckets := int(end.Sub(start)/width) + 1

	index := make([]time.Time, buckets)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * width)
	}
	out := core.NewFrame(index, append([]core.SensorID(nil), f.Sensors...))

	for _, s := range f.Sensors {
		col := f.Column(s)
		sums := make([]float64, buckets)
		counts := make([]int, buckets)
		for i, ts := range f.Index {
			if core.IsAbsent(col[i]) {
				continue
			}
			b := int(step.Floor(ts).Sub(start) / width)
			sums[b] += col[i]
			counts[b]++
		}
		for b := 0; b < buckets; b++ {
			if counts[b] > 0 {
				out.Set(s, b, sums[b]/float64(counts[b]))
			}
		}
	}
	return out
}

// ResampleHourly produces the hourly grid from the indexed series.
func ResampleHourly(f *core.Frame) *core.Frame { return Resample(f, StepHour) }

// ResampleDaily produces the daily grid from the hourly grid.
func ResampleDaily(hourly *core.Frame) *core.Frame { return Resample(hourly, StepDay) }
