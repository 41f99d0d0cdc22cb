package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
)

func sampleArtifacts() *pipeline.Artifacts {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sensors := []core.SensorID{"no2"}
	hourly := core.NewFrame([]time.Time{start}, sensors)
	daily := core.NewFrame([]time.Time{start}, sensors)
	lag := -2
	return &pipeline.Artifacts{
		RunID:       "run-1",
		GeneratedAt: start,
		Missing: pipeline.MissingReport{
			Rows: 100,
			Per:  []pipeline.MissingEntry{{Sensor: "no2", Count: 4, Rate: 0.04}},
		},
		Hourly: hourly,
		Daily:  daily,
		Outliers: pipeline.OutlierReport{
			Flags: core.NewFlagFrame(daily.Index, sensors),
		},
		LagRanking: []pipeline.LagResult{
			{A: "no2", B: "pm10", Lag: &lag, Correlation: 0.8123},
			{A: "no2", B: "dead", Correlation: math.NaN()},
		},
	}
}

func TestSummary_ContainsHeadlineNumbers(t *testing.T) {
	md := Summary(sampleArtifacts())

	assert.Contains(t, md, "run-1")
	assert.Contains(t, md, "|no2|4|0.0400|")
	assert.Contains(t, md, "|no2~pm10|-2|0.8123|")
	assert.Contains(t, md, "|no2~dead|-|-|", "undefined results render as dashes")
}

func TestRenderHTML_ProducesDocument(t *testing.T) {
	out := string(RenderHTML(sampleArtifacts()))
	assert.True(t, strings.Contains(out, "<table>"), "markdown tables must render")
	assert.Contains(t, out, "Pipeline run run-1")
}
