package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabetes-api/internal/config"
)

func writeArtifacts(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	scaler := filepath.Join(dir, "scaler.json")
	model := filepath.Join(dir, "diabetes_model.json")
	require.NoError(t, os.WriteFile(scaler, []byte(`{"kind":"identity","n_features_in":8}`), 0o600))
	require.NoError(t, os.WriteFile(model, []byte(`{"kind":"threshold","n_features_in":8,"feature":0,"threshold":5}`), 0o600))
	return scaler, model
}

func TestBuildLoadsArtifacts(t *testing.T) {
	scaler, model := writeArtifacts(t)
	t.Setenv("SCALER_PATH", scaler)
	t.Setenv("MODEL_PATH", model)
	t.Setenv("ARTIFACT_SOURCE", "file")
	t.Setenv("LOG_LEVEL", "error")

	deps, closer, err := Build(context.Background())
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, 8, deps.Artifacts.NumFeatures)
	assert.Equal(t, 8, deps.Predictor.NumFeatures())
	assert.NotNil(t, deps.Metrics)

	label, err := deps.Predictor.Predict([]float64{6, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, int(label))
}

func TestBuildFailsOnMissingArtifact(t *testing.T) {
	scaler, _ := writeArtifacts(t)
	t.Setenv("SCALER_PATH", scaler)
	t.Setenv("MODEL_PATH", filepath.Join(t.TempDir(), "diabetes_model.pkl"))
	t.Setenv("ARTIFACT_SOURCE", "file")
	t.Setenv("LOG_LEVEL", "error")

	_, _, err := Build(context.Background())
	assert.Error(t, err)
}

func TestBuildSourceRejectsUnknown(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := BuildSource(config.Config{ArtifactSource: "s3"}, log)
	assert.Error(t, err)

	_, err = BuildSource(config.Config{ArtifactSource: "sql"}, log)
	assert.Error(t, err)

	src, err := BuildSource(config.Config{ArtifactSource: "file"}, log)
	require.NoError(t, err)
	assert.Equal(t, "file", src.Name())
}

func TestLoadUsesGivenLogger(t *testing.T) {
	scaler, model := writeArtifacts(t)
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	deps, err := Load(context.Background(), config.Config{
		ArtifactSource: "file",
		ScalerPath:     scaler,
		ModelPath:      model,
		LoadAttempts:   1,
		LoadTimeout:    5 * time.Second,
	}, log)
	require.NoError(t, err)

	assert.Same(t, log, deps.Log)
	assert.Contains(t, buf.String(), "artifacts loaded")
}
