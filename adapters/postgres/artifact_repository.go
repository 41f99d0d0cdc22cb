package postgres

import (
	"context"
	"database/sql"
	"math"

	"github.com/jmoiron/sqlx"

	"gridpulse/domain/pipeline"
	"gridpulse/internal/errors"
	"gridpulse/ports"
)

// artifactRepository persists run summaries so analysts can query past runs
// without re-reading artifact directories.
type artifactRepository struct {
	db *sqlx.DB
}

// NewArtifactRepository creates the repository and its schema.
func NewArtifactRepository(db *sqlx.DB) (ports.ArtifactRepository, error) {
	r := &artifactRepository{db: db}
	if err := r.migrate(); err != nil {
		return nil, errors.WrapCode(err, errors.CodeStorageFailed, "creating artifact schema")
	}
	return r, nil
}

func (r *artifactRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id TEXT PRIMARY KEY,
		generated_at TIMESTAMPTZ NOT NULL,
		row_count INTEGER NOT NULL,
		sensor_count INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS run_missingness (
		run_id TEXT REFERENCES pipeline_runs(id) ON DELETE CASCADE,
		sensor TEXT NOT NULL,
		missing_count INTEGER NOT NULL,
		missing_rate DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, sensor)
	);
	CREATE TABLE IF NOT EXISTS run_lag_ranking (
		run_id TEXT REFERENCES pipeline_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		sensor_a TEXT NOT NULL,
		sensor_b TEXT NOT NULL,
		best_lag INTEGER,
		corr DOUBLE PRECISION,
		PRIMARY KEY (run_id, position)
	);`
	_, err := r.db.Exec(schema)
	return err
}

// SaveRun stores the run summary, missingness report and lag ranking in one
// transaction.
func (r *artifactRepository) SaveRun(ctx context.Context, a *pipeline.Artifacts) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WrapCode(err, errors.CodeStorageFailed, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, generated_at, row_count, sensor_count) VALUES ($1, $2, $3, $4)`,
		a.RunID, a.GeneratedAt, a.Missing.Rows, len(a.Missing.Per),
	)
	if err != nil {
		return errors.WrapCode(err, errors.CodeStorageFailed, "inserting run")
	}

	for _, e := range a.Missing.Per {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_missingness (run_id, sensor, missing_count, missing_rate) VALUES ($1, $2, $3, $4)`,
			a.RunID, string(e.Sensor), e.Count, e.Rate,
		)
		if err != nil {
			return errors.WrapCode(err, errors.CodeStorageFailed, "inserting missingness row")
		}
	}

	for i, lr := range a.LagRanking {
		var lag sql.NullInt64
		if lr.Lag != nil {
			lag = sql.NullInt64{Int64: int64(*lr.Lag), Valid: true}
		}
		var corr sql.NullFloat64
		if !math.IsNaN(lr.Correlation) {
			corr = sql.NullFloat64{Float64: lr.Correlation, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_lag_ranking (run_id, position, sensor_a, sensor_b, best_lag, corr) VALUES ($1, $2, $3, $4, $5, $6)`,
			a.RunID, i, string(lr.A), string(lr.B), lag, corr,
		)
		if err != nil {
			return errors.WrapCode(err, errors.CodeStorageFailed, "inserting lag ranking row")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapCode(err, errors.CodeStorageFailed, "committing run")
	}
	return nil
}

// LatestRunID returns the most recent run's id.
func (r *artifactRepository) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := r.db.GetContext(ctx, &id,
		`SELECT id FROM pipeline_runs ORDER BY generated_at DESC LIMIT 1`)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.WrapCode(err, errors.CodeStorageFailed, "querying latest run")
	}
	return id, nil
}
