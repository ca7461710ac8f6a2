package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gorelia/domain/lifetime"
	"gorelia/internal"
	"gorelia/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Bootstrap BootstrapConfig
	Analysis  AnalysisConfig
	LogLevel  internal.LogLevel
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds database connection settings. An empty URL disables
// the record-backed routes.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// BootstrapConfig holds resampling engine settings
type BootstrapConfig struct {
	Samples     int
	Workers     int
	MaxAttempts int
	Timeout     time.Duration
	Seed        int64
}

// AnalysisConfig holds defaults applied to requests that omit them
type AnalysisConfig struct {
	CollapseMode   lifetime.CollapseMode
	Alpha          float64
	EndObservation time.Time
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	var err error
	if config.LogLevel, err = loadLogLevel(); err != nil {
		return nil, errors.Wrap(err, "failed to load logging configuration")
	}
	if config.Bootstrap, err = loadBootstrapConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to load bootstrap configuration")
	}
	if config.Analysis, err = loadAnalysisConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadLogLevel() (internal.LogLevel, error) {
	raw := getEnvOrDefault("LOG_LEVEL", "INFO")
	level, ok := internal.ParseLogLevel(raw)
	if !ok {
		return 0, errors.ConfigInvalid(fmt.Sprintf("LOG_LEVEL %q is not one of ERROR, WARN, INFO, DEBUG, TRACE", raw))
	}
	return level, nil
}

func loadBootstrapConfig() (BootstrapConfig, error) {
	var (
		b   BootstrapConfig
		err error
	)
	if b.Samples, err = getEnvInt("BOOTSTRAP_SAMPLES", 100); err != nil {
		return b, err
	}
	if b.Workers, err = getEnvInt("BOOTSTRAP_WORKERS", runtime.NumCPU()); err != nil {
		return b, err
	}
	if b.MaxAttempts, err = getEnvInt("BOOTSTRAP_MAX_ATTEMPTS", 1000); err != nil {
		return b, err
	}
	if b.Timeout, err = getEnvDuration("BOOTSTRAP_TIMEOUT", 5*time.Minute); err != nil {
		return b, err
	}
	seed, err := getEnvInt("BOOTSTRAP_SEED", 0)
	if err != nil {
		return b, err
	}
	b.Seed = int64(seed)
	return b, nil
}

func loadAnalysisConfig() (AnalysisConfig, error) {
	var a AnalysisConfig

	mode, err := lifetime.ParseCollapseMode(getEnvOrDefault("COLLAPSE_MODE", "mid"))
	if err != nil {
		return a, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	a.CollapseMode = mode

	if a.Alpha, err = getEnvFloat("CONFIDENCE_ALPHA", 0.05); err != nil {
		return a, err
	}

	raw := getEnvOrDefault("END_OBSERVATION_DATE", "2016-06-30")
	a.EndObservation, err = time.Parse(time.DateOnly, raw)
	if err != nil {
		return a, errors.ConfigInvalid(fmt.Sprintf("END_OBSERVATION_DATE %q is not a YYYY-MM-DD date", raw))
	}
	return a, nil
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Server.Port) == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("GIN_MODE %q is not one of debug, release, test", config.Server.GinMode))
	}
	if config.Bootstrap.Samples <= 0 {
		return errors.ConfigInvalid("BOOTSTRAP_SAMPLES must be positive")
	}
	if config.Bootstrap.Workers <= 0 {
		return errors.ConfigInvalid("BOOTSTRAP_WORKERS must be positive")
	}
	if config.Bootstrap.MaxAttempts <= 0 {
		return errors.ConfigInvalid("BOOTSTRAP_MAX_ATTEMPTS must be positive")
	}
	if config.Bootstrap.Timeout <= 0 {
		return errors.ConfigInvalid("BOOTSTRAP_TIMEOUT must be positive")
	}
	if !(config.Analysis.Alpha > 0 && config.Analysis.Alpha < 1) {
		return errors.ConfigInvalid("CONFIDENCE_ALPHA must be in (0, 1)")
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

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s %q is not an integer", key, value))
	}
	return intValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s %q is not a number", key, value))
	}
	return floatValue, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s %q is not a duration", key, value))
	}
	return duration, nil
}
