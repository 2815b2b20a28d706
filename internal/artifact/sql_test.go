package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteSource(t *testing.T) *SQLSource {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "artifacts.db")
	src, err := NewSQLSource("sqlite3", dsn, "model_artifacts")
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	require.NoError(t, src.EnsureSchema(context.Background()))
	return src
}

func TestSQLSourceRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newSQLiteSource(t)

	_, err := src.Fetch(ctx, "scaler")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, src.Put(ctx, "scaler", []byte(`{"kind":"identity","n_features_in":2}`)))
	require.NoError(t, src.Put(ctx, "scaler", []byte(`{"kind":"identity","n_features_in":8}`)))

	got, err := src.Fetch(ctx, "scaler")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"identity","n_features_in":8}`, string(got))
}

func TestLoadFromSQLSource(t *testing.T) {
	ctx := context.Background()
	src := newSQLiteSource(t)

	for ref, file := range map[string]string{
		"scaler": "testdata/scaler.json",
		"model":  "testdata/diabetes_model.yaml",
	} {
		data, err := os.ReadFile(file)
		require.NoError(t, err)
		require.NoError(t, src.Put(ctx, ref, data))
	}

	b, err := Load(ctx, src, Refs{Scaler: "scaler", Model: "model"}, Options{Attempts: 1, Backoff: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, "sql", b.Info.Model.Source)
	assert.Equal(t, 8, b.Info.NumFeatures)
}

func TestNewSQLSourceRejectsUnknownDriver(t *testing.T) {
	_, err := NewSQLSource("mysql", "user@/db", "artifacts")
	assert.Error(t, err)
}

func TestRedisSourceRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	src, err := NewRedisSource(addr, "", 0, "test:artifact:")
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.Put(ctx, "scaler", []byte(`{"kind":"identity","n_features_in":8}`)))
	got, err := src.Fetch(ctx, "scaler")
	require.NoError(t, err)
	assert.Contains(t, string(got), "identity")

	_, err = src.Fetch(ctx, "missing-"+time.Now().Format(time.RFC3339Nano))
	assert.ErrorIs(t, err, ErrNotFound)
}
