package pipeline

import (
	"time"

	"gridpulse/domain/core"
)

// Imputation strategy names. The imputed set is a keyed collection so callers
// can pick or compare variants without the pipeline committing to one.
const (
	StrategyForwardBackward = "ffill_bfill"
	StrategyTimeInterp      = "interpolate_time"
)

// MissingEntry reports missingness for one sensor on the indexed series.
type MissingEntry struct {
	Sensor core.SensorID `json:"sensor"`
	Count  int           `json:"missing_count"`
	Rate   float64       `json:"missing_rate"` // rounded to 4 digits
}

// MissingReport is sorted descending by count, ties in sensor order.
type MissingReport struct {
	Rows int            `json:"rows"`
	Per  []MissingEntry `json:"per_sensor"`
}

// ImputedSet holds the independently computed fully-populated variants of the
// hourly grid, keyed by strategy name. The variants are never merged.
type ImputedSet map[string]*core.Frame

// Bounds is the robust interval used for flagging and clipping one sensor.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// OutlierReport carries the per-day flag matrix, the clipped daily grid and
// the per-sensor bounds they were derived from. Sensors with no observations
// have no bounds entry.
type OutlierReport struct {
	Flags   *core.FlagFrame
	Clipped *core.Frame
	Bounds  map[core.SensorID]Bounds
}

// DiurnalProfile is the hour-of-day mean table: exactly 24 rows keyed 0-23,
// one column per sensor. Hours never observed carry the absent marker.
type DiurnalProfile struct {
	Hours   []int // always 0..23
	Sensors []core.SensorID
	Mean    map[core.SensorID][]float64 // 24 entries per sensor
}

// CorrelationMatrix is the sensor-by-sensor Pearson matrix over the hourly
// grid, computed pairwise on the non-absent overlap.
type CorrelationMatrix struct {
	Sensors []core.SensorID
	Values  [][]float64 // Values[i][j], NaN where undefined
}

// At returns the correlation between two sensors by position.
func (m *CorrelationMatrix) At(i, j int) float64 { return m.Values[i][j] }

// LagResult records the best lag found for one unordered sensor pair.
// Positive Lag means B lags A: the correlation was computed between A at t
// and B at t+Lag. Lag is nil when no lag produced a defined correlation, in
// which case Correlation is NaN and the entry sorts last.
type LagResult struct {
	A           core.SensorID `json:"a"`
	B           core.SensorID `json:"b"`
	Lag         *int          `json:"best_lag"`
	Correlation float64       `json:"corr"` // rounded to 4 digits
}

// Artifacts is the full output bundle of one pipeline run. Each field is an
// immutable derived value; re-running on identical input reproduces every
// field except RunID and GeneratedAt.
type Artifacts struct {
	RunID       string
	GeneratedAt time.Time

	Missing     MissingReport
	Hourly      *core.Frame
	Daily       *core.Frame
	Imputed     ImputedSet
	Outliers    OutlierReport
	Rolling     *core.Frame
	Diurnal     DiurnalProfile
	Correlation CorrelationMatrix
	LagRanking  []LagResult
}
