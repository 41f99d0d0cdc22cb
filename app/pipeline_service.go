package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gridpulse/domain/pipeline"
	"gridpulse/internal"
	"gridpulse/internal/analysis"
	"gridpulse/internal/config"
	"gridpulse/internal/errors"
	"gridpulse/ports"
)

// PipelineService runs the temporal normalization and statistical derivation
// pipeline end to end: index, resample, impute, flag outliers, derive rolling
// stats, diurnal pattern and lagged correlations, then hand the artifact
// bundle to the optional writer, repository and plotter collaborators.
type PipelineService struct {
	reader  ports.TableReader
	writer  ports.ArtifactWriter     // optional
	repo    ports.ArtifactRepository // optional
	plotter ports.Plotter            // optional
	cfg     config.PipelineConfig
	log     *internal.Logger
}

// NewPipelineService wires the pipeline. reader is required; writer, repo and
// plotter may be nil, in which case the corresponding side effect is skipped.
func NewPipelineService(
	reader ports.TableReader,
	writer ports.ArtifactWriter,
	repo ports.ArtifactRepository,
	plotter ports.Plotter,
	cfg config.PipelineConfig,
	log *internal.Logger,
) *PipelineService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &PipelineService{
		reader:  reader,
		writer:  writer,
		repo:    repo,
		plotter: plotter,
		cfg:     cfg,
		log:     log.Named("pipeline"),
	}
}

// Run executes every stage in data-flow order and returns the artifact
// bundle. Structural errors abort before any artifact is produced; writer,
// repository and plotter failures are surfaced but only after the bundle is
// fully computed.
func (s *PipelineService) Run(ctx context.Context) (*pipeline.Artifacts, error) {
	table, err := s.reader.Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading measurement table")
	}

	arts, err := s.Derive(ctx, table)
	if err != nil {
		return nil, err
	}

	if s.writer != nil {
		if err := s.writer.Write(ctx, arts); err != nil {
			return nil, errors.Wrap(err, "writing artifacts")
		}
	}
	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, arts); err != nil {
			return nil, errors.Wrap(err, "persisting run")
		}
	}
	s.plot(ctx, arts)

	return arts, nil
}

// Derive computes the artifact bundle from a raw table without touching any
// collaborator. Every derived grid is a fresh value; the inputs of each stage
// are never mutated.
func (s *PipelineService) Derive(ctx context.Context, table *ports.RawTable) (*pipeline.Artifacts, error) {
	frame, err := analysis.BuildFrame(table)
	if err != nil {
		return nil, err
	}
	s.log.Info("indexed %d rows across %d sensors", frame.Len(), len(frame.Sensors))

	missing := analysis.MissingReport(frame)

	hourly := analysis.ResampleHourly(frame)
	daily := analysis.ResampleDaily(hourly)
	s.log.Debug("hourly grid %d rows, daily grid %d rows", hourly.Len(), daily.Len())

	imputed := analysis.ImputeVariants(hourly)
	outliers := analysis.DetectOutliers(daily)

	interp := imputed[pipeline.StrategyTimeInterp]
	rolling := analysis.RollingStats(interp, s.cfg.RollingWindow, s.cfg.RollingMinObs)
	diurnal := analysis.DiurnalProfile(interp)
	corr := analysis.CorrelationMatrix(hourly)

	maxLag := s.cfg.MaxLag
	if maxLag == 0 {
		maxLag = analysis.DefaultMaxLag
	}
	ranking, err := analysis.BestLagCorrelations(ctx, interp, maxLag)
	if err != nil {
		return nil, errors.Wrap(err, "lag correlation search")
	}

	return &pipeline.Artifacts{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Missing:     missing,
		Hourly:      hourly,
		Daily:       daily,
		Imputed:     imputed,
		Outliers:    outliers,
		Rolling:     rolling,
		Diurnal:     diurnal,
		Correlation: corr,
		LagRanking:  ranking,
	}, nil
}

// plot invokes the visualization collaborator if one is present. Plotting is
// best-effort: failures are logged and never affect the bundle.
func (s *PipelineService) plot(ctx context.Context, arts *pipeline.Artifacts) {
	if s.plotter == nil {
		return
	}
	if err := s.plotter.PlotSeries(ctx, "ts_hourly", arts.Imputed[pipeline.StrategyTimeInterp]); err != nil {
		s.log.Warn("series plot skipped: %v", err)
	}
	if err := s.plotter.PlotSeries(ctx, "ts_daily", arts.Daily); err != nil {
		s.log.Warn("daily plot skipped: %v", err)
	}
	if err := s.plotter.PlotHeatmap(ctx, "corr_heatmap", arts.Correlation); err != nil {
		s.log.Warn("heatmap skipped: %v", err)
	}
}
