package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"

	"diabetes-api/internal/artifact"
	"diabetes-api/internal/config"
	"diabetes-api/internal/logger"
	"diabetes-api/internal/metrics"
	"diabetes-api/internal/predict"
)

// Deps bundles the runtime dependencies shared by handlers.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Artifacts artifact.Info
	Predictor *predict.Service
	Metrics   *metrics.Collector
}

// Build loads env, config and logging, then loads both artifacts. Any error means the
// process must not start serving. The returned closer releases the log file.
func Build(ctx context.Context) (Deps, io.Closer, error) {
	cfg, log, closer, err := Setup()
	if err != nil {
		return Deps{}, nil, err
	}
	deps, err := Load(ctx, cfg, log)
	if err != nil {
		closer.Close()
		return Deps{}, nil, err
	}
	return deps, closer, nil
}

// Load opens the configured artifact source and loads the scaler and model from it.
func Load(ctx context.Context, cfg config.Config, log *slog.Logger) (Deps, error) {
	src, err := BuildSource(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize artifact source: %w", err)
	}
	if c, ok := src.(io.Closer); ok {
		// artifacts are fully in memory once loaded
		defer c.Close()
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer cancel()
	bundle, err := artifact.Load(loadCtx, src, artifact.Refs{Scaler: cfg.ScalerPath, Model: cfg.ModelPath}, artifact.Options{
		FeatureCount:    cfg.FeatureCount,
		Attempts:        cfg.LoadAttempts,
		Backoff:         cfg.LoadBackoff,
		ONNXLibraryPath: cfg.ONNXLibraryPath,
	})
	if err != nil {
		return Deps{}, fmt.Errorf("failed to load artifacts: %w", err)
	}
	log.Info("artifacts loaded",
		"load_id", bundle.Info.LoadID,
		"n_features_in", bundle.Info.NumFeatures,
		"scaler_kind", bundle.Info.Scaler.Kind,
		"scaler_sha256", bundle.Info.Scaler.SHA256,
		"model_kind", bundle.Info.Model.Kind,
		"model_sha256", bundle.Info.Model.SHA256,
	)

	m := metrics.NewCollector()
	m.SetFeatureCount(bundle.Info.NumFeatures)

	return Deps{
		Config:    cfg,
		Log:       log,
		Artifacts: bundle.Info,
		Predictor: predict.NewService(bundle.Scaler, bundle.Classifier),
		Metrics:   m,
	}, nil
}

// Setup loads the optional .env file, the config, and the logger.
func Setup() (config.Config, *slog.Logger, io.Closer, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, nil, nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log, closer := logger.NewWithFile(cfg.LogLevel, logger.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	return cfg, log, closer, nil
}

// BuildSource returns the artifact byte source selected by ARTIFACT_SOURCE.
func BuildSource(cfg config.Config, log *slog.Logger) (artifact.Source, error) {
	switch cfg.ArtifactSource {
	case "file":
		log.Info("using file artifact source", "scaler", cfg.ScalerPath, "model", cfg.ModelPath)
		return artifact.NewFileSource(), nil
	case "redis":
		src, err := artifact.NewRedisSource(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		log.Info("using Redis artifact source", "addr", cfg.RedisAddr, "prefix", cfg.RedisKeyPrefix)
		return src, nil
	case "sql":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when ARTIFACT_SOURCE=sql")
		}
		src, err := artifact.NewSQLSource(cfg.DBDriver, cfg.DBURL, cfg.ArtifactTable)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQL source: %w", err)
		}
		log.Info("using SQL artifact source", "driver", cfg.DBDriver, "table", cfg.ArtifactTable)
		return src, nil
	default:
		return nil, fmt.Errorf("invalid ARTIFACT_SOURCE: %s (valid options: file, redis, sql)", cfg.ArtifactSource)
	}
}
