package web_test

import (
	"context"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/stretchr/testify/mock"
)

type MockResultHistory struct {
	mock.Mock
}

func (m *MockResultHistory) GetResult(ctx context.Context, roomId string) (domain.Result, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(domain.Result), args.Error(1)
}

func (m *MockResultHistory) RecentResults(ctx context.Context, limit int) ([]domain.Result, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Result), args.Error(1)
}
