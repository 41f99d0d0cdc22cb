package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridpulse/domain/core"
)

func TestMissingReport_SortedDescendingByCount(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := core.NewFrame(hourlyIndex(start, 4), []core.SensorID{"a", "b", "c"})
	// a: 1 absent, b: 3 absent, c: 0 absent
	f.Set("a", 0, 1)
	f.Set("a", 1, 2)
	f.Set("a", 2, 3)
	f.Set("b", 0, 1)
	for i := 0; i < 4; i++ {
		f.Set("c", i, float64(i))
	}

	report := MissingReport(f)

	require.Len(t, report.Per, 3)
	assert.Equal(t, core.SensorID("b"), report.Per[0].Sensor)
	assert.Equal(t, 3, report.Per[0].Count)
	assert.Equal(t, 0.75, report.Per[0].Rate)
	assert.Equal(t, core.SensorID("a"), report.Per[1].Sensor)
	assert.Equal(t, core.SensorID("c"), report.Per[2].Sensor)
	assert.Equal(t, 0.0, report.Per[2].Rate)
	assert.Equal(t, 4, report.Rows)
}

func TestMissingReport_RateRounded(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := core.NewFrame(hourlyIndex(start, 3), []core.SensorID{"a"})
	f.Set("a", 0, 1) // 2 of 3 absent -> 0.6667

	report := MissingReport(f)
	assert.Equal(t, 0.6667, report.Per[0].Rate)
}
