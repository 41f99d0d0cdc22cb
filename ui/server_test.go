package ui

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
	"gridpulse/ports"
)

type stubRepo struct {
	latest string
}

func (r *stubRepo) SaveRun(ctx context.Context, a *pipeline.Artifacts) error { return nil }

func (r *stubRepo) LatestRunID(ctx context.Context) (string, error) { return r.latest, nil }

func hours24() []int {
	h := make([]int, 24)
	for i := range h {
		h[i] = i
	}
	return h
}

func publishedServer(repo ports.ArtifactRepository) *Server {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sensors := []core.SensorID{"no2"}
	hourly := core.NewFrame([]time.Time{start}, sensors)
	daily := core.NewFrame([]time.Time{start}, sensors)

	diurnalMean := make([]float64, 24)
	for h := range diurnalMean {
		diurnalMean[h] = core.Absent()
	}
	diurnalMean[0] = 2.5

	s := NewServer(repo)
	s.Publish(&pipeline.Artifacts{
		RunID:       "run-9",
		GeneratedAt: start,
		Missing:     pipeline.MissingReport{Rows: 1},
		Hourly:      hourly,
		Daily:       daily,
		Outliers:    pipeline.OutlierReport{Flags: core.NewFlagFrame(daily.Index, sensors)},
		Diurnal: pipeline.DiurnalProfile{
			Hours:   hours24(),
			Sensors: sensors,
			Mean:    map[core.SensorID][]float64{"no2": diurnalMean},
		},
		LagRanking: []pipeline.LagResult{{A: "no2", B: "dead", Correlation: math.NaN()}},
	})
	return s
}

func TestServer_NoRunYet(t *testing.T) {
	s := NewServer(nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RunSummary(t *testing.T) {
	s := publishedServer(nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-9", body["run_id"])
}

func TestServer_LagsEncodeUndefinedAsNull(t *testing.T) {
	s := publishedServer(nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lags", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["corr"])
	assert.Nil(t, rows[0]["best_lag"])
}

func TestServer_DiurnalHas24Rows(t *testing.T) {
	s := publishedServer(nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diurnal", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 24)
}

func TestServer_RunSummaryIncludesPersistedRun(t *testing.T) {
	s := publishedServer(&stubRepo{latest: "run-8"})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-8", body["latest_persisted_run"])
}
