package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gridpulse/adapters/ingest"
	"gridpulse/adapters/postgres"
	"gridpulse/app"
	"gridpulse/internal"
	"gridpulse/internal/config"
	"gridpulse/ports"
	"gridpulse/ui"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := internal.NewDefaultLogger()

	reader := ingest.NewFileReader(cfg.Data.InputFile)
	writer := ingest.NewArtifactWriter(cfg.Data.OutputDir)

	var repo ports.ArtifactRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo, err = postgres.NewArtifactRepository(db)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
	}

	service := app.NewPipelineService(reader, writer, repo, nil, cfg.Pipeline, logger)

	ctx := context.Background()
	arts, err := service.Run(ctx)
	if err != nil {
		logger.Error("pipeline failed: %v", err)
		os.Exit(1)
	}
	logger.Info("run %s complete: %d sensors, %d lag pairs, artifacts in %s",
		arts.RunID, len(arts.Hourly.Sensors), len(arts.LagRanking), cfg.Data.OutputDir)

	if cfg.Server.Port == "" {
		return
	}
	server := ui.NewServer(repo)
	server.Publish(arts)
	logger.Info("serving artifacts on :%s", cfg.Server.Port)
	if err := server.ListenAndServe(cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
