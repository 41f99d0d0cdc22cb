package core

import (
	"math"
	"time"
)

// SensorID identifies a single measurement column. The sensor set is fixed
// when the raw table is indexed and is identical across every derived grid.
type SensorID string

// Absent is the missing-value marker carried through every grid. It is NaN,
// which keeps "no observation" distinct from a measured zero; averaging,
// quartile and correlation computations exclude it rather than propagate it.
func Absent() float64 { return math.NaN() }

// IsAbsent reports whether v is the missing-value marker.
func IsAbsent(v float64) bool { return math.IsNaN(v) }

// Frame is a time-indexed numeric table: one row per timestamp, one column
// per sensor. Storage is column-major. Frames are never mutated after
// construction; every pipeline stage returns a fresh Frame.
type Frame struct {
	Index   []time.Time
	Sensors []SensorID
	columns map[SensorID][]float64
}

// NewFrame builds a frame over the given index and sensor order. Columns are
// allocated filled with the absent marker.
func NewFrame(index []time.Time, sensors []SensorID) *Frame {
	f := &Frame{
		Index:   index,
		Sensors: sensors,
		columns: make(map[SensorID][]float64, len(sensors)),
	}
	for _, s := range sensors {
		col := make([]float64, len(index))
		for i := range col {
			col[i] = Absent()
		}
		f.columns[s] = col
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Index) }

// Column returns the backing slice for a sensor. Callers must treat it as
// read-only.
func (f *Frame) Column(s SensorID) []float64 { return f.columns[s] }

// Set writes a single cell. Only the stage that constructed the frame may
// call this, before handing the frame downstream.
func (f *Frame) Set(s SensorID, row int, v float64) { f.columns[s][row] = v }

// Clone returns a deep copy sharing nothing with the receiver.
func (f *Frame) Clone() *Frame {
	idx := make([]time.Time, len(f.Index))
	copy(idx, f.Index)
	sensors := make([]SensorID, len(f.Sensors))
	copy(sensors, f.Sensors)
	out := &Frame{Index: idx, Sensors: sensors, columns: make(map[SensorID][]float64, len(f.Sensors))}
	for _, s := range f.Sensors {
		col := make([]float64, len(f.columns[s]))
		copy(col, f.columns[s])
		out.columns[s] = col
	}
	return out
}

// AbsentCount returns the number of absent cells in a sensor's column.
func (f *Frame) AbsentCount(s SensorID) int {
	n := 0
	for _, v := range f.columns[s] {
		if IsAbsent(v) {
			n++
		}
	}
	return n
}

// Observed returns the non-absent values of a sensor's column, in row order.
func (f *Frame) Observed(s SensorID) []float64 {
	out := make([]float64, 0, len(f.columns[s]))
	for _, v := range f.columns[s] {
		if !IsAbsent(v) {
			out = append(out, v)
		}
	}
	return out
}

// FlagFrame mirrors Frame with boolean cells, used for outlier flags.
type FlagFrame struct {
	Index   []time.Time
	Sensors []SensorID
	columns map[SensorID][]bool
}

// NewFlagFrame builds an all-false flag frame over the given index.
func NewFlagFrame(index []time.Time, sensors []SensorID) *FlagFrame {
	ff := &FlagFrame{
		Index:   index,
		Sensors: sensors,
		columns: make(map[SensorID][]bool, len(sensors)),
	}
	for _, s := range sensors {
		ff.columns[s] = make([]bool, len(index))
	}
	return ff
}

// Column returns the flag column for a sensor.
func (ff *FlagFrame) Column(s SensorID) []bool { return ff.columns[s] }

// Set writes a single flag.
func (ff *FlagFrame) Set(s SensorID, row int, v bool) { ff.columns[s][row] = v }

// TrueCount returns the number of raised flags for a sensor.
func (ff *FlagFrame) TrueCount(s SensorID) int {
	n := 0
	for _, v := range ff.columns[s] {
		if v {
			n++
		}
	}
	return n
}
