package model

import (
	"fmt"
	"math"
)

// LogisticRegression is a fitted linear classifier.
// A single coefficient row is the binary case; K rows are one-vs-rest or multinomial.
type LogisticRegression struct {
	Coef      [][]float64
	Intercept []float64
	Classes   []Label
}

func (m *LogisticRegression) NumFeatures() int {
	if len(m.Coef) == 0 {
		return 0
	}
	return len(m.Coef[0])
}

// DecisionFunction returns one score per coefficient row.
func (m *LogisticRegression) DecisionFunction(x FeatureVector) ([]float64, error) {
	if err := checkShape(x, m.NumFeatures()); err != nil {
		return nil, err
	}
	scores := make([]float64, len(m.Coef))
	for k, w := range m.Coef {
		scores[k] = dot(w, x) + m.Intercept[k]
	}
	return scores, nil
}

func (m *LogisticRegression) Predict(x FeatureVector) (Label, error) {
	scores, err := m.DecisionFunction(x)
	if err != nil {
		return 0, err
	}
	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.Classes[1], nil
		}
		return m.Classes[0], nil
	}
	best := 0
	for k := 1; k < len(scores); k++ {
		if scores[k] > scores[best] {
			best = k
		}
	}
	return m.Classes[best], nil
}

// PredictProba returns class probabilities ordered like Classes.
func (m *LogisticRegression) PredictProba(x FeatureVector) ([]float64, error) {
	scores, err := m.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(scores), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(z []float64) []float64 {
	maxZ := z[0]
	for _, v := range z[1:] {
		maxZ = math.Max(maxZ, v)
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// ThresholdClassifier predicts LabelPositive when one feature exceeds a cut-off.
type ThresholdClassifier struct {
	Feature   int
	Threshold float64
	N         int
}

func (m *ThresholdClassifier) NumFeatures() int { return m.N }

func (m *ThresholdClassifier) Predict(x FeatureVector) (Label, error) {
	if err := checkShape(x, m.N); err != nil {
		return 0, err
	}
	if m.Feature < 0 || m.Feature >= len(x) {
		return 0, fmt.Errorf("threshold feature index %d out of range", m.Feature)
	}
	if x[m.Feature] > m.Threshold {
		return LabelPositive, nil
	}
	return LabelNegative, nil
}
