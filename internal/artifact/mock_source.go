package artifact

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSource is a mock implementation of Source using testify/mock.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSource) Name() string {
	return "mock"
}
