package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
)

// MockSessionAPI is a mock implementation of port.SessionAPI.
type MockSessionAPI struct {
	mock.Mock
}

func (m *MockSessionAPI) CreateSession(ctx context.Context, results []domain.ExtractionResult) (string, error) {
	args := m.Called(ctx, results)
	return args.String(0), args.Error(1)
}

func (m *MockSessionAPI) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionAPI) GetSessionStatus(ctx context.Context, sessionID string) (*port.SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.SessionStatus), args.Error(1)
}

func (m *MockSessionAPI) GetSessionStats(ctx context.Context) (*port.SessionStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.SessionStats), args.Error(1)
}
