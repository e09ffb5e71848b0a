package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockChatAPI is a mock implementation of port.ChatAPI.
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) Ask(ctx context.Context, sessionID, message string) (string, error) {
	args := m.Called(ctx, sessionID, message)
	return args.String(0), args.Error(1)
}

// MockHealthAPI is a mock implementation of port.HealthAPI.
type MockHealthAPI struct {
	mock.Mock
}

func (m *MockHealthAPI) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
