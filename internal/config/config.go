package config

import (
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"chronorate/domain/circadian"
	"chronorate/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Generation GenerationConfig
	Models     ModelConfig
	Output     OutputConfig
	LogLevel   string
}

// DatabaseConfig holds database connection settings. An empty URL disables persistence.
type DatabaseConfig struct {
	URL    string
	Driver string
}

// Enabled reports whether a corpus repository should be opened.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// GenerationConfig holds population synthesis settings
type GenerationConfig struct {
	Subjects          int
	Days              int
	Seed              int64
	Workers           int
	EarlyRatio        float64
	LateRatio         float64
	IntermediateRatio float64
	Trips             int
	SamplesPerHour    int
	Substeps          int
}

// ModelConfig holds the external model service settings. An empty address
// means no models are loaded and inference always returns the safe default.
type ModelConfig struct {
	ServiceAddr string
	Timeout     time.Duration
}

// OutputConfig holds file system paths for exported artifacts
type OutputConfig struct {
	Dir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:   loadDatabaseConfig(),
		Generation: loadGenerationConfig(),
		Models:     loadModelConfig(),
		Output:     loadOutputConfig(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	url := os.Getenv("DATABASE_URL")
	return DatabaseConfig{
		URL:    url,
		Driver: getEnvOrDefault("DATABASE_DRIVER", InferDriver(url)),
	}
}

// InferDriver picks lib/pq for postgres URLs and the embedded driver otherwise.
func InferDriver(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") || strings.Contains(url, "host=") {
		return "postgres"
	}
	return "sqlite"
}

func loadGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Subjects:          getEnvIntOrDefault("GEN_SUBJECTS", 1000),
		Days:              getEnvIntOrDefault("GEN_DAYS", 30),
		Seed:              getEnvInt64OrDefault("GEN_SEED", 42),
		Workers:           getEnvIntOrDefault("GEN_WORKERS", runtime.NumCPU()),
		EarlyRatio:        getEnvFloatOrDefault("GEN_EARLY_RATIO", 0.25),
		LateRatio:         getEnvFloatOrDefault("GEN_LATE_RATIO", 0.25),
		IntermediateRatio: getEnvFloatOrDefault("GEN_INTERMEDIATE_RATIO", 0.5),
		Trips:             getEnvIntOrDefault("GEN_TRIPS", 2),
		SamplesPerHour:    getEnvIntOrDefault("GEN_SAMPLES_PER_HOUR", 4),
		Substeps:          getEnvIntOrDefault("GEN_SUBSTEPS", 4),
	}
}

func loadModelConfig() ModelConfig {
	return ModelConfig{
		ServiceAddr: getEnvOrDefault("MODEL_SERVICE_ADDR", ""),
		Timeout:     getEnvDurationOrDefault("MODEL_TIMEOUT", 5*time.Second),
	}
}

func loadOutputConfig() OutputConfig {
	return OutputConfig{
		Dir: getEnvOrDefault("OUTPUT_DIR", "./data/synthetic"),
	}
}

func validateConfig(config *Config) error {
	gen := config.Generation
	if gen.Subjects < 1 {
		return errors.ConfigInvalid("GEN_SUBJECTS must be at least 1")
	}
	if gen.Days < 1 {
		return errors.ConfigInvalid("GEN_DAYS must be at least 1")
	}
	if gen.Workers < 1 {
		return errors.ConfigInvalid("GEN_WORKERS must be at least 1")
	}
	if gen.SamplesPerHour < 4 {
		return errors.ConfigInvalid("GEN_SAMPLES_PER_HOUR must be at least 4")
	}
	if gen.Substeps < 1 {
		return errors.ConfigInvalid("GEN_SUBSTEPS must be at least 1")
	}
	if gen.Trips < 0 {
		return errors.ConfigInvalid("GEN_TRIPS cannot be negative")
	}
	for _, r := range []float64{gen.EarlyRatio, gen.LateRatio, gen.IntermediateRatio} {
		if r < 0 || r > 1 {
			return errors.ConfigInvalid("class ratios must lie in [0, 1]")
		}
	}
	if gen.EarlyRatio+gen.LateRatio > 1 {
		return errors.ConfigInvalid("GEN_EARLY_RATIO + GEN_LATE_RATIO cannot exceed 1")
	}
	if math.Abs(gen.EarlyRatio+gen.IntermediateRatio+gen.LateRatio-1) > circadian.RatioTolerance {
		return errors.ConfigInvalid("GEN_EARLY_RATIO + GEN_INTERMEDIATE_RATIO + GEN_LATE_RATIO must equal 1")
	}
	if config.Database.Enabled() && config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite")
	}
	if config.Models.Timeout <= 0 {
		return errors.ConfigInvalid("MODEL_TIMEOUT must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
