package mocks

import (
	"context"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockRunner is a mock implementation of dispatcher.Runner interface.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Start(ctx context.Context, executionID string) (*models.Execution, error) {
	args := m.Called(ctx, executionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func (m *MockRunner) Resume(ctx context.Context, conversationID string, msg models.InboundMessage) (bool, error) {
	args := m.Called(ctx, conversationID, msg)

	return args.Bool(0), args.Error(1)
}

func (m *MockRunner) Cancel(ctx context.Context, conversationID, reason string) (bool, error) {
	args := m.Called(ctx, conversationID, reason)

	return args.Bool(0), args.Error(1)
}
