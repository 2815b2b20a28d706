package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabetes-api/internal/app"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFailWritesJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{"client error", http.StatusBadRequest, http.StatusBadRequest},
		{"server error", http.StatusInternalServerError, http.StatusInternalServerError},
		{"zero defaults to 500", 0, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Fail(discardLogger(), w, "something broke", nil, tt.status)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, "something broke", body.Error)
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	type payload struct {
		Features []*float64 `json:"features" validate:"required,dive,required"`
	}
	one := 1.0

	err := Validator.Struct(&payload{Features: []*float64{&one, nil}})
	require.Error(t, err)

	w := httptest.NewRecorder()
	ValidationError(discardLogger(), w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, []string{"features[1] is required"}, body.Details)
}

func TestValidationErrorMissingField(t *testing.T) {
	type payload struct {
		Features []*float64 `json:"features" validate:"required,dive,required"`
	}
	err := Validator.Struct(&payload{})
	require.Error(t, err)

	w := httptest.NewRecorder()
	ValidationError(discardLogger(), w, err)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, []string{"features is required"}, body.Details)
}

func TestRecovererReturns500(t *testing.T) {
	r := NewRouter(discardLogger(), time.Second)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("artifact exploded")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(app.Deps{Log: discardLogger()})(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
