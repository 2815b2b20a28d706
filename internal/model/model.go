package model

import (
	"errors"
	"fmt"
)

// FeatureVector is one sample's ordered numeric inputs.
type FeatureVector []float64

// Label is a class produced by a Classifier. The served model is binary.
type Label int

const (
	LabelNegative Label = 0
	LabelPositive Label = 1
)

// Valid reports whether l is one of the binary labels.
func (l Label) Valid() bool {
	return l == LabelNegative || l == LabelPositive
}

var ErrShapeMismatch = errors.New("feature count mismatch")

// Scaler maps a raw feature vector to a normalized one of the same length.
type Scaler interface {
	Transform(x FeatureVector) (FeatureVector, error)
	NumFeatures() int
}

// Classifier maps a normalized feature vector to a label.
type Classifier interface {
	Predict(x FeatureVector) (Label, error)
	NumFeatures() int
}

func checkShape(x FeatureVector, n int) error {
	if len(x) != n {
		return fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, len(x), n)
	}
	return nil
}

func dot(w, x []float64) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum
}
