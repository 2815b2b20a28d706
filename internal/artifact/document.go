package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"diabetes-api/internal/model"
)

// Kind names the fitted estimator a document describes.
type Kind string

const (
	KindStandardScaler     Kind = "standard_scaler"
	KindMinMaxScaler       Kind = "minmax_scaler"
	KindIdentity           Kind = "identity"
	KindLogisticRegression Kind = "logistic_regression"
	KindThreshold          Kind = "threshold"
	KindONNX               Kind = "onnx"
)

var ErrMalformed = errors.New("malformed artifact")

// Document is the persisted form of a fitted scaler or classifier.
// It is written by the offline export step as JSON or YAML.
type Document struct {
	Kind        Kind        `json:"kind" yaml:"kind"`
	NFeaturesIn int         `json:"n_features_in,omitempty" yaml:"n_features_in,omitempty"`
	Mean        []float64   `json:"mean,omitempty" yaml:"mean,omitempty"`
	Scale       []float64   `json:"scale,omitempty" yaml:"scale,omitempty"`
	Min         []float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Coef        [][]float64 `json:"coef,omitempty" yaml:"coef,omitempty"`
	Intercept   []float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	Classes     []int       `json:"classes,omitempty" yaml:"classes,omitempty"`
	Feature     int         `json:"feature,omitempty" yaml:"feature,omitempty"`
	Threshold   float64     `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Path        string      `json:"path,omitempty" yaml:"path,omitempty"`
	Input       string      `json:"input,omitempty" yaml:"input,omitempty"`
	Output      string      `json:"output,omitempty" yaml:"output,omitempty"`
}

// Decode parses a JSON or YAML document; the format is picked from the first non-space byte.
func Decode(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	var doc Document
	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(trimmed))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if doc.Kind == "" {
		return Document{}, fmt.Errorf("%w: kind is required", ErrMalformed)
	}
	return doc, nil
}

// IsScaler reports whether the document describes a scaler.
func (d Document) IsScaler() bool {
	switch d.Kind {
	case KindStandardScaler, KindMinMaxScaler, KindIdentity:
		return true
	}
	return false
}

// IsClassifier reports whether the document describes a classifier.
func (d Document) IsClassifier() bool {
	switch d.Kind {
	case KindLogisticRegression, KindThreshold, KindONNX:
		return true
	}
	return false
}

// Scaler builds the fitted scaler the document describes.
func (d Document) Scaler() (model.Scaler, error) {
	switch d.Kind {
	case KindStandardScaler:
		n := len(d.Scale)
		if n == 0 {
			return nil, malformed(d.Kind, "scale is required")
		}
		if len(d.Mean) != 0 && len(d.Mean) != n {
			return nil, malformed(d.Kind, "mean has %d values, scale has %d", len(d.Mean), n)
		}
		if err := d.checkDeclared(n); err != nil {
			return nil, err
		}
		if err := finite(d.Kind, d.Mean, d.Scale); err != nil {
			return nil, err
		}
		return &model.StandardScaler{Mean: d.Mean, Scale: d.Scale}, nil
	case KindMinMaxScaler:
		n := len(d.Scale)
		if n == 0 || len(d.Min) != n {
			return nil, malformed(d.Kind, "scale and min must be non-empty and equal length")
		}
		if err := d.checkDeclared(n); err != nil {
			return nil, err
		}
		if err := finite(d.Kind, d.Scale, d.Min); err != nil {
			return nil, err
		}
		return &model.MinMaxScaler{Scale: d.Scale, Min: d.Min}, nil
	case KindIdentity:
		if d.NFeaturesIn <= 0 {
			return nil, malformed(d.Kind, "n_features_in must be positive")
		}
		return &model.IdentityScaler{N: d.NFeaturesIn}, nil
	}
	return nil, malformed(d.Kind, "not a scaler kind")
}

// Classifier builds the fitted classifier the document describes.
// KindONNX needs a runtime and is built by the Loader instead.
func (d Document) Classifier() (model.Classifier, error) {
	switch d.Kind {
	case KindLogisticRegression:
		if len(d.Coef) == 0 || len(d.Coef[0]) == 0 {
			return nil, malformed(d.Kind, "coef is required")
		}
		n := len(d.Coef[0])
		for i, row := range d.Coef {
			if len(row) != n {
				return nil, malformed(d.Kind, "coef row %d has %d values, want %d", i, len(row), n)
			}
			if err := finite(d.Kind, row); err != nil {
				return nil, err
			}
		}
		if len(d.Intercept) != len(d.Coef) {
			return nil, malformed(d.Kind, "intercept has %d values, coef has %d rows", len(d.Intercept), len(d.Coef))
		}
		if err := finite(d.Kind, d.Intercept); err != nil {
			return nil, err
		}
		if err := d.checkDeclared(n); err != nil {
			return nil, err
		}
		classes, err := d.labels()
		if err != nil {
			return nil, err
		}
		wantClasses := len(d.Coef)
		if wantClasses == 1 {
			wantClasses = 2
		}
		if len(classes) != wantClasses {
			return nil, malformed(d.Kind, "got %d classes for %d coef rows", len(classes), len(d.Coef))
		}
		return &model.LogisticRegression{Coef: d.Coef, Intercept: d.Intercept, Classes: classes}, nil
	case KindThreshold:
		if d.NFeaturesIn <= 0 {
			return nil, malformed(d.Kind, "n_features_in must be positive")
		}
		if d.Feature < 0 || d.Feature >= d.NFeaturesIn {
			return nil, malformed(d.Kind, "feature index %d out of range", d.Feature)
		}
		if err := finite(d.Kind, []float64{d.Threshold}); err != nil {
			return nil, err
		}
		return &model.ThresholdClassifier{Feature: d.Feature, Threshold: d.Threshold, N: d.NFeaturesIn}, nil
	}
	return nil, malformed(d.Kind, "not a classifier kind")
}

func (d Document) labels() ([]model.Label, error) {
	if len(d.Classes) == 0 {
		return []model.Label{model.LabelNegative, model.LabelPositive}, nil
	}
	seen := make(map[model.Label]bool, len(d.Classes))
	out := make([]model.Label, len(d.Classes))
	for i, c := range d.Classes {
		l := model.Label(c)
		if !l.Valid() {
			return nil, malformed(d.Kind, "class %d is not a binary label", c)
		}
		if seen[l] {
			return nil, malformed(d.Kind, "duplicate class %d", c)
		}
		seen[l] = true
		out[i] = l
	}
	return out, nil
}

func (d Document) checkDeclared(n int) error {
	if d.NFeaturesIn != 0 && d.NFeaturesIn != n {
		return malformed(d.Kind, "n_features_in is %d but parameters cover %d features", d.NFeaturesIn, n)
	}
	return nil
}

func finite(kind Kind, vals ...[]float64) error {
	for _, vs := range vals {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return malformed(kind, "non-finite parameter")
			}
		}
	}
	return nil
}

func malformed(kind Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, kind, fmt.Sprintf(format, args...))
}
