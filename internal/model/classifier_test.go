package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogisticRegressionBinary(t *testing.T) {
	m := &LogisticRegression{
		Coef:      [][]float64{{2, -1}},
		Intercept: []float64{-0.5},
		Classes:   []Label{0, 1},
	}

	tests := []struct {
		name  string
		input FeatureVector
		want  Label
	}{
		{"positive score", FeatureVector{1, 0}, 1},     // 2 - 0.5 = 1.5
		{"negative score", FeatureVector{0, 1}, 0},     // -1 - 0.5
		{"zero score is negative", FeatureVector{0.25, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogisticRegressionProba(t *testing.T) {
	m := &LogisticRegression{
		Coef:      [][]float64{{1}},
		Intercept: []float64{0},
		Classes:   []Label{0, 1},
	}
	p, err := m.PredictProba(FeatureVector{0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p[0], 1e-9)
	assert.InDelta(t, 0.5, p[1], 1e-9)

	p, err = m.PredictProba(FeatureVector{math.Log(3)})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, p[1], 1e-9)
}

func TestLogisticRegressionMulticlassArgmax(t *testing.T) {
	m := &LogisticRegression{
		Coef:      [][]float64{{1, 0}, {0, 1}},
		Intercept: []float64{0, 0},
		Classes:   []Label{1, 0},
	}
	got, err := m.Predict(FeatureVector{0.2, 0.9})
	require.NoError(t, err)
	assert.Equal(t, Label(0), got)

	p, err := m.PredictProba(FeatureVector{0.2, 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p[0]+p[1], 1e-9)
	assert.Greater(t, p[1], p[0])
}

func TestLogisticRegressionShapeMismatch(t *testing.T) {
	m := &LogisticRegression{Coef: [][]float64{{1, 2, 3}}, Intercept: []float64{0}, Classes: []Label{0, 1}}
	_, err := m.Predict(FeatureVector{1, 2})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestThresholdClassifier(t *testing.T) {
	m := &ThresholdClassifier{Feature: 0, Threshold: 5.0, N: 8}

	got, err := m.Predict(FeatureVector{6.0, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, LabelPositive, got)

	got, err = m.Predict(FeatureVector{1.0, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, LabelNegative, got)

	got, err = m.Predict(FeatureVector{5.0, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, LabelNegative, got, "threshold is exclusive")

	_, err = m.Predict(FeatureVector{6.0})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLabelValid(t *testing.T) {
	assert.True(t, Label(0).Valid())
	assert.True(t, Label(1).Valid())
	assert.False(t, Label(2).Valid())
	assert.False(t, Label(-1).Valid())
}
