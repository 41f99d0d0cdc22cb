package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
	"gridpulse/internal/config"
	"gridpulse/ports"
)

type stubReader struct {
	table *ports.RawTable
}

func (r *stubReader) Read(ctx context.Context) (*ports.RawTable, error) {
	return r.table, nil
}

type mockPlotter struct {
	mock.Mock
}

func (m *mockPlotter) PlotSeries(ctx context.Context, name string, f *core.Frame) error {
	args := m.Called(ctx, name, f)
	return args.Error(0)
}

func (m *mockPlotter) PlotHeatmap(ctx context.Context, name string, cm pipeline.CorrelationMatrix) error {
	args := m.Called(ctx, name, cm)
	return args.Error(0)
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		MaxLag:        6,
		RollingWindow: 24 * time.Hour,
		RollingMinObs: 6,
	}
}

// testTable builds two days of hourly readings for two stations with a few
// gaps and one duplicate timestamp.
func testTable() *ports.RawTable {
	table := &ports.RawTable{
		Headers: []string{"datetime", "no2_east", "no2_west", "operator"},
	}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 48; i++ {
		ts := start.Add(time.Duration(i) * time.Hour).Format("2006-01-02 15:04:05")
		east := fmt.Sprintf("%.1f", 10+float64(i%24))
		west := fmt.Sprintf("%.1f", 20+float64((i+3)%24))
		if i%7 == 0 {
			east = "" // gaps
		}
		table.Rows = append(table.Rows, []string{ts, east, west, "day-shift"})
	}
	// duplicate timestamp and an unparseable one
	table.Rows = append(table.Rows, []string{start.Format("2006-01-02 15:04:05"), "999", "999", "x"})
	table.Rows = append(table.Rows, []string{"not-a-time", "1", "1", "x"})
	return table
}

func TestPipelineService_RunProducesConsistentSensorSet(t *testing.T) {
	svc := NewPipelineService(&stubReader{table: testTable()}, nil, nil, nil, testConfig(), nil)

	arts, err := svc.Run(context.Background())
	require.NoError(t, err)

	sensors := []core.SensorID{"no2_east", "no2_west"}
	assert.Equal(t, sensors, arts.Hourly.Sensors)
	assert.Equal(t, sensors, arts.Daily.Sensors)
	assert.Equal(t, sensors, arts.Outliers.Flags.Sensors)
	assert.Equal(t, sensors, arts.Outliers.Clipped.Sensors)
	assert.Equal(t, sensors, arts.Diurnal.Sensors)
	assert.Equal(t, sensors, arts.Correlation.Sensors)
	for _, v := range arts.Imputed {
		assert.Equal(t, sensors, v.Sensors)
	}
	assert.Len(t, arts.Missing.Per, 2)
	assert.Len(t, arts.LagRanking, 1)
	assert.NotEmpty(t, arts.RunID)
}

func TestPipelineService_ImputedGridsFullyPopulated(t *testing.T) {
	svc := NewPipelineService(&stubReader{table: testTable()}, nil, nil, nil, testConfig(), nil)

	arts, err := svc.Run(context.Background())
	require.NoError(t, err)

	for name, v := range arts.Imputed {
		for _, s := range v.Sensors {
			assert.Zerof(t, v.AbsentCount(s), "variant %s sensor %s", name, s)
		}
	}
}

func TestPipelineService_DeterministicAcrossRuns(t *testing.T) {
	table := testTable()
	svc := NewPipelineService(&stubReader{table: table}, nil, nil, nil, testConfig(), nil)

	first, err := svc.Derive(context.Background(), table)
	require.NoError(t, err)
	second, err := svc.Derive(context.Background(), table)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Hourly.Index, second.Hourly.Index)
	for _, s := range first.Hourly.Sensors {
		assert.Equal(t, first.Hourly.Column(s), second.Hourly.Column(s))
	}
	require.Equal(t, len(first.LagRanking), len(second.LagRanking))
	for i := range first.LagRanking {
		assert.Equal(t, first.LagRanking[i].A, second.LagRanking[i].A)
		assert.Equal(t, first.LagRanking[i].B, second.LagRanking[i].B)
		require.NotNil(t, first.LagRanking[i].Lag)
		require.NotNil(t, second.LagRanking[i].Lag)
		assert.Equal(t, *first.LagRanking[i].Lag, *second.LagRanking[i].Lag)
		assert.Equal(t, first.LagRanking[i].Correlation, second.LagRanking[i].Correlation)
	}
}

func TestPipelineService_PlotterFailureDoesNotFailRun(t *testing.T) {
	plotter := &mockPlotter{}
	plotter.On("PlotSeries", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no display"))
	plotter.On("PlotHeatmap", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no display"))

	svc := NewPipelineService(&stubReader{table: testTable()}, nil, nil, plotter, testConfig(), nil)

	_, err := svc.Run(context.Background())
	require.NoError(t, err, "plotting is best-effort")
	plotter.AssertExpectations(t)
}

func TestPipelineService_StructuralErrorAbortsBeforeArtifacts(t *testing.T) {
	table := &ports.RawTable{
		Headers: []string{"a", "b"},
		Rows:    [][]string{{"1", "2"}},
	}
	svc := NewPipelineService(&stubReader{table: table}, nil, nil, nil, testConfig(), nil)

	arts, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, arts)
}
