package model

import "github.com/stretchr/testify/mock"

// MockScaler is a mock implementation of Scaler using testify/mock.
type MockScaler struct {
	mock.Mock
}

func (m *MockScaler) Transform(x FeatureVector) (FeatureVector, error) {
	args := m.Called(x)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(FeatureVector), args.Error(1)
}

func (m *MockScaler) NumFeatures() int {
	args := m.Called()
	return args.Int(0)
}

// MockClassifier is a mock implementation of Classifier using testify/mock.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Predict(x FeatureVector) (Label, error) {
	args := m.Called(x)
	return args.Get(0).(Label), args.Error(1)
}

func (m *MockClassifier) NumFeatures() int {
	args := m.Called()
	return args.Int(0)
}
