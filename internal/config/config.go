package config

import (
	"os"
	"strconv"
	"time"

	"gridpulse/internal/errors"
)

// Config is the complete application configuration, threaded explicitly
// through the pipeline entry point. Nothing reads the environment after Load.
type Config struct {
	Data     DataConfig
	Pipeline PipelineConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// DataConfig holds input/output locations.
type DataConfig struct {
	InputFile string // CSV or XLSX measurement table
	OutputDir string // artifact directory
}

// PipelineConfig holds the statistical knobs.
type PipelineConfig struct {
	MaxLag        int           // lag search range in grid steps, +/-
	RollingWindow time.Duration // backward-looking window for rolling stats
	RollingMinObs int           // minimum observations to emit a rolling value
}

// DatabaseConfig holds optional postgres persistence settings. An empty URL
// disables persistence entirely.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds the optional read-only HTTP surface. An empty port means
// no server is started.
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Data: DataConfig{
			InputFile: getEnv("INPUT_FILE", "data/measurements.csv"),
			OutputDir: getEnv("OUTPUT_DIR", "output"),
		},
		Pipeline: PipelineConfig{
			MaxLag:        getEnvInt("MAX_LAG_HOURS", 24),
			RollingWindow: time.Duration(getEnvInt("ROLLING_WINDOW_HOURS", 24)) * time.Hour,
			RollingMinObs: getEnvInt("ROLLING_MIN_OBS", 6),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: os.Getenv("PORT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Data.InputFile == "" {
		return errors.New(errors.CodeConfigInvalid, "INPUT_FILE must not be empty")
	}
	if c.Pipeline.MaxLag < 0 {
		return errors.New(errors.CodeConfigInvalid, "MAX_LAG_HOURS must be >= 0")
	}
	if c.Pipeline.RollingWindow <= 0 {
		return errors.New(errors.CodeConfigInvalid, "ROLLING_WINDOW_HOURS must be > 0")
	}
	if c.Pipeline.RollingMinObs < 1 {
		return errors.New(errors.CodeConfigInvalid, "ROLLING_MIN_OBS must be >= 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
