package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	// Server
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"5000"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"` // 1MB
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"` // also write rotated JSON logs here when set
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`

	// Artifacts
	ArtifactSource  string        `env:"ARTIFACT_SOURCE" envDefault:"file"` // "file", "redis" or "sql"
	ScalerPath      string        `env:"SCALER_PATH" envDefault:"scaler.json"`
	ModelPath       string        `env:"MODEL_PATH" envDefault:"diabetes_model.json"`
	FeatureCount    int           `env:"FEATURE_COUNT" envDefault:"0"` // 0 trusts the artifacts
	LoadAttempts    int           `env:"LOAD_ATTEMPTS" envDefault:"3"`
	LoadBackoff     time.Duration `env:"LOAD_BACKOFF" envDefault:"200ms"`
	LoadTimeout     time.Duration `env:"LOAD_TIMEOUT" envDefault:"30s"`
	ONNXLibraryPath string        `env:"ONNX_LIBRARY_PATH"`

	// Redis artifact source
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"artifact:"`

	// SQL artifact source
	DBDriver      string `env:"DB_DRIVER" envDefault:"pgx"` // "pgx", "postgres" or "sqlite3"
	DBURL         string `env:"DB_URL"`
	ArtifactTable string `env:"ARTIFACT_TABLE" envDefault:"artifacts"`
}

// Load reads configuration from environment variables with defaults and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks values env.Parse cannot.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.FeatureCount < 0 {
		return fmt.Errorf("FEATURE_COUNT must not be negative")
	}
	if c.LoadAttempts < 1 {
		return fmt.Errorf("LOAD_ATTEMPTS must be at least 1")
	}
	if c.ScalerPath == "" || c.ModelPath == "" {
		return fmt.Errorf("SCALER_PATH and MODEL_PATH are required")
	}

	switch c.ArtifactSource {
	case "file":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when ARTIFACT_SOURCE=redis")
		}
	case "sql":
		if c.DBURL == "" {
			return fmt.Errorf("DB_URL is required when ARTIFACT_SOURCE=sql")
		}
	default:
		return fmt.Errorf("invalid ARTIFACT_SOURCE: %s (valid options: file, redis, sql)", c.ArtifactSource)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
