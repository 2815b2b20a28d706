package model

// StandardScaler applies (x - mean) / scale per feature.
// An empty Mean means the scaler was fitted without centering.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) NumFeatures() int { return len(s.Scale) }

func (s *StandardScaler) Transform(x FeatureVector) (FeatureVector, error) {
	if err := checkShape(x, s.NumFeatures()); err != nil {
		return nil, err
	}
	out := make(FeatureVector, len(x))
	for i, v := range x {
		if len(s.Mean) > 0 {
			v -= s.Mean[i]
		}
		// zero-variance features are passed through unscaled
		if scale := s.Scale[i]; scale != 0 {
			v /= scale
		}
		out[i] = v
	}
	return out, nil
}

// MinMaxScaler applies x*scale + min, the folded form of a fitted min-max range.
type MinMaxScaler struct {
	Scale []float64
	Min   []float64
}

func (s *MinMaxScaler) NumFeatures() int { return len(s.Scale) }

func (s *MinMaxScaler) Transform(x FeatureVector) (FeatureVector, error) {
	if err := checkShape(x, s.NumFeatures()); err != nil {
		return nil, err
	}
	out := make(FeatureVector, len(x))
	for i, v := range x {
		out[i] = v*s.Scale[i] + s.Min[i]
	}
	return out, nil
}

// IdentityScaler returns its input unchanged. Used when the model was fitted on raw features.
type IdentityScaler struct {
	N int
}

func (s *IdentityScaler) NumFeatures() int { return s.N }

func (s *IdentityScaler) Transform(x FeatureVector) (FeatureVector, error) {
	if err := checkShape(x, s.N); err != nil {
		return nil, err
	}
	out := make(FeatureVector, len(x))
	copy(out, x)
	return out, nil
}
