package checker

import (
	"context"

	"git.skobk.in/skobkin/dota2-notify-bot/opendota"
	"git.skobk.in/skobkin/dota2-notify-bot/storage"

	"github.com/stretchr/testify/mock"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) AllUsers(ctx context.Context) ([]storage.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.User), args.Error(1)
}

func (m *MockUserStore) Friends(ctx context.Context, ownerID int64, followingOnly bool) ([]storage.Friend, error) {
	args := m.Called(ctx, ownerID, followingOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Friend), args.Error(1)
}

func (m *MockUserStore) AdvanceWatermark(ctx context.Context, ownerID, accountID, matchID int64) error {
	args := m.Called(ctx, ownerID, accountID, matchID)
	return args.Error(0)
}

type MockMatchSource struct {
	mock.Mock
}

func (m *MockMatchSource) PlayerMatches(ctx context.Context, accountID int64, limit int) ([]opendota.Match, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]opendota.Match), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, chatID string, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}
