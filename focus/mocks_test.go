package focus

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- Querier ---

type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) CurrentForegroundApp(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockQuerier) BringToForeground(ctx context.Context, appId string) error {
	args := m.Called(ctx, appId)
	return args.Error(0)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}
