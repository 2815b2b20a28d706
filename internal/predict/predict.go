// Package predict runs one feature vector through the loaded scaler and classifier.
package predict

import (
	"errors"
	"fmt"
	"math"

	"diabetes-api/internal/model"
)

var (
	// ErrInvalidInput marks a request the caller can fix: wrong length or non-finite values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInference marks a fault raised by the loaded artifacts themselves.
	ErrInference = errors.New("inference failed")
)

// Service is safe for concurrent use; the artifacts it wraps are never mutated.
type Service struct {
	scaler     model.Scaler
	classifier model.Classifier
}

func NewService(scaler model.Scaler, classifier model.Classifier) *Service {
	return &Service{scaler: scaler, classifier: classifier}
}

// NumFeatures is the exact feature vector length Predict accepts.
func (s *Service) NumFeatures() int {
	return s.scaler.NumFeatures()
}

// Predict scales features and classifies the resulting single sample.
func (s *Service) Predict(features model.FeatureVector) (model.Label, error) {
	if n := s.NumFeatures(); len(features) != n {
		return 0, fmt.Errorf("%w: expected %d features, got %d", ErrInvalidInput, n, len(features))
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: features[%d] is not a finite number", ErrInvalidInput, i)
		}
	}

	scaled, err := s.scaler.Transform(features)
	if err != nil {
		return 0, fmt.Errorf("%w: scaler: %v", ErrInference, err)
	}
	label, err := s.classifier.Predict(scaled)
	if err != nil {
		return 0, fmt.Errorf("%w: classifier: %v", ErrInference, err)
	}
	if !label.Valid() {
		return 0, fmt.Errorf("%w: classifier returned label %d", ErrInference, label)
	}
	return label, nil
}
