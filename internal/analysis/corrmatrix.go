package analysis

import (
	"math"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
)

// CorrelationMatrix computes the sensor-by-sensor Pearson matrix over the
// hourly grid, pairwise on the non-absent overlap. Cells are NaN where the
// overlap is too small or a side has no variance; the diagonal is 1 for any
// sensor with at least two observations.
func CorrelationMatrix(f *core.Frame) pipeline.CorrelationMatrix {
	n := len(f.Sensors)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		for j := range values[i] {
			values[i][j] = math.NaN()
		}
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := pearsonOverlap(f.Column(f.Sensors[i]), f.Column(f.Sensors[j]))
			values[i][j] = r
			values[j][i] = r
		}
	}
	return pipeline.CorrelationMatrix{
		Sensors: append([]core.SensorID(nil), f.Sensors...),
		Values:  values,
	}
}
