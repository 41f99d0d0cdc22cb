package ports

import (
	"context"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
)

// ArtifactWriter persists the artifact bundle to some external sink (CSV
// directory, workbook). Writers must not mutate the bundle.
type ArtifactWriter interface {
	Write(ctx context.Context, a *pipeline.Artifacts) error
}

// ArtifactRepository stores run summaries in a database for later querying.
// The repository is optional; a nil repository means no persistence.
type ArtifactRepository interface {
	SaveRun(ctx context.Context, a *pipeline.Artifacts) error
	LatestRunID(ctx context.Context) (string, error)
}

// Plotter is an optional visualization collaborator. The pipeline invokes it
// only if one is present; its absence or failure never affects artifact
// computation.
type Plotter interface {
	PlotSeries(ctx context.Context, name string, f *core.Frame) error
	PlotHeatmap(ctx context.Context, name string, m pipeline.CorrelationMatrix) error
}
