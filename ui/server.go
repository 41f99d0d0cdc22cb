package ui

import (
	"encoding/json"
	"math"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gridpulse/adapters/report"
	"gridpulse/domain/pipeline"
	"gridpulse/ports"
)

// Server exposes the latest artifact bundle read-only over HTTP. It never
// triggers computation; the pipeline pushes bundles into it.
type Server struct {
	mu     sync.RWMutex
	latest *pipeline.Artifacts
	repo   ports.ArtifactRepository // optional
	router *chi.Mux
}

// NewServer builds the router. repo may be nil, in which case /api/run omits
// the persisted-run field.
func NewServer(repo ports.ArtifactRepository) *Server {
	s := &Server{repo: repo, router: chi.NewRouter()}
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/run", s.handleRun)
	s.router.Get("/api/missing", s.handleMissing)
	s.router.Get("/api/lags", s.handleLags)
	s.router.Get("/api/diurnal", s.handleDiurnal)
	s.router.Get("/report", s.handleReport)
	return s
}

// Publish replaces the served bundle.
func (s *Server) Publish(a *pipeline.Artifacts) {
	s.mu.Lock()
	s.latest = a
	s.mu.Unlock()
}

// Handler returns the http handler for mounting.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on the given port.
func (s *Server) ListenAndServe(port string) error {
	return http.ListenAndServe(":"+port, s.router)
}

func (s *Server) bundle() *pipeline.Artifacts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	a := s.bundle()
	if a == nil {
		http.Error(w, "no run available", http.StatusNotFound)
		return
	}
	body := map[string]interface{}{
		"run_id":       a.RunID,
		"generated_at": a.GeneratedAt,
		"rows":         a.Missing.Rows,
		"sensors":      a.Hourly.Sensors,
		"hourly_rows":  a.Hourly.Len(),
		"daily_rows":   a.Daily.Len(),
	}
	if s.repo != nil {
		id, err := s.repo.LatestRunID(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body["latest_persisted_run"] = id
	}
	writeJSON(w, body)
}

func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	a := s.bundle()
	if a == nil {
		http.Error(w, "no run available", http.StatusNotFound)
		return
	}
	writeJSON(w, a.Missing)
}

func (s *Server) handleLags(w http.ResponseWriter, r *http.Request) {
	a := s.bundle()
	if a == nil {
		http.Error(w, "no run available", http.StatusNotFound)
		return
	}
	// NaN is not valid JSON; undefined correlations are sent as null.
	type lagRow struct {
		A    string   `json:"a"`
		B    string   `json:"b"`
		Lag  *int     `json:"best_lag"`
		Corr *float64 `json:"corr"`
	}
	rows := make([]lagRow, 0, len(a.LagRanking))
	for _, lr := range a.LagRanking {
		row := lagRow{A: string(lr.A), B: string(lr.B), Lag: lr.Lag}
		if !math.IsNaN(lr.Correlation) {
			c := lr.Correlation
			row.Corr = &c
		}
		rows = append(rows, row)
	}
	writeJSON(w, rows)
}

func (s *Server) handleDiurnal(w http.ResponseWriter, r *http.Request) {
	a := s.bundle()
	if a == nil {
		http.Error(w, "no run available", http.StatusNotFound)
		return
	}
	type diurnalRow struct {
		Hour int                 `json:"hour"`
		Mean map[string]*float64 `json:"mean"`
	}
	rows := make([]diurnalRow, 0, 24)
	for _, h := range a.Diurnal.Hours {
		row := diurnalRow{Hour: h, Mean: make(map[string]*float64, len(a.Diurnal.Sensors))}
		for _, sensor := range a.Diurnal.Sensors {
			v := a.Diurnal.Mean[sensor][h]
			if math.IsNaN(v) {
				row.Mean[string(sensor)] = nil
			} else {
				c := v
				row.Mean[string(sensor)] = &c
			}
		}
		rows = append(rows, row)
	}
	writeJSON(w, rows)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	a := s.bundle()
	if a == nil {
		http.Error(w, "no run available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(report.RenderHTML(a))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
