package notify_test

import (
	"context"
	"gurimarket/backend/internal/push"

	"github.com/stretchr/testify/mock"
)

// MockPusher records sent messages.
type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Send(ctx context.Context, msg push.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
