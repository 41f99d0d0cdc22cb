package analysis

import (
	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
)

// ImputeVariants computes the two independent fully-populated variants of the
// hourly grid, keyed by strategy name. A sensor with no observations at all
// stays fully absent in both variants; the timestamp index is untouched.
func ImputeVariants(hourly *core.Frame) pipeline.ImputedSet {
	return pipeline.ImputedSet{
		pipeline.StrategyForwardBackward: FillForwardBackward(hourly),
		pipeline.StrategyTimeInterp:      InterpolateTime(hourly),
	}
}

// FillForwardBackward replaces absent values with the nearest earlier known
// value; anything still absent at the start takes the nearest later value.
func FillForwardBackward(f *core.Frame) *core.Frame {
	out := f.Clone()
	for _, s := range out.Sensors {
		col := out.Column(s)
		last := core.Absent()
		for i := range col {
			if core.IsAbsent(col[i]) {
				col[i] = last
			} else {
				last = col[i]
			}
		}
		next := core.Absent()
		for i := len(col) - 1; i >= 0; i-- {
			if core.IsAbsent(col[i]) {
				col[i] = next
			} else {
				next = col[i]
			}
		}
	}
	return out
}

// InterpolateTime fills absent values by linear interpolation against elapsed
// time between the nearest known neighbours. Before the first or after the
// last known point the value is held constant.
func InterpolateTime(f *core.Frame) *core.Frame {
	out := f.Clone()
	for _, s := range out.Sensors {
		col := out.Column(s)
		known := knownIndices(col)
		if len(known) == 0 {
			continue
		}

		ki := 0 // known[ki] is the first known index at or after the scan point
		for i := range col {
			if !core.IsAbsent(col[i]) {
				if ki < len(known) && known[ki] == i {
					ki++
				}
				continue
			}
			switch {
			case ki == 0:
				col[i] = col[known[0]]
			case ki == len(known):
				col[i] = col[known[len(known)-1]]
			default:
				lo, hi := known[ki-1], known[ki]
				t0 := out.Index[lo]
				t1 := out.Index[hi]
				span := t1.Sub(t0).Seconds()
				if span == 0 {
					col[i] = col[lo]
					continue
				}
				frac := out.Index[i].Sub(t0).Seconds() / span
				col[i] = col[lo] + (col[hi]-col[lo])*frac
			}
		}
	}
	return out
}

func knownIndices(col []float64) []int {
	var idx []int
	for i, v := range col {
		if !core.IsAbsent(v) {
			idx = append(idx, i)
		}
	}
	return idx
}
