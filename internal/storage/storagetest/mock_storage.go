// Package storagetest provides a testify mock of storage.Storage shared by
// the handler packages' tests.
package storagetest

import (
	"context"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/storage"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of the storage.Storage interface.
// Mutation callbacks are applied to the record passed as the first
// argument of the matching Return, so tests can assert on the outcome.
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) GetUser(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetPost(ctx context.Context, collection, postID string) (*models.Post, error) {
	args := m.Called(ctx, collection, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockStorage) CountReportsSince(ctx context.Context, reporteeID string, since time.Time) (int, error) {
	args := m.Called(ctx, reporteeID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) ReportCategoriesSince(ctx context.Context, reporteeID string, since time.Time) ([]string, error) {
	args := m.Called(ctx, reporteeID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// UpdateUserTrust expects Return(current models.TrustRecord, hidden int, err).
// On success the mutation runs against current.
func (m *MockStorage) UpdateUserTrust(ctx context.Context, uid string, mutate storage.TrustMutation) (models.TrustRecord, int, error) {
	args := m.Called(ctx, uid, mutate)
	if err := args.Error(2); err != nil {
		return models.TrustRecord{}, 0, err
	}
	current, _ := args.Get(0).(models.TrustRecord)
	next, hide := mutate(current)
	if !hide {
		return next, 0, nil
	}
	return next, args.Int(1), nil
}

// UpdateUserReputation expects Return(current models.ReputationRecord, err).
func (m *MockStorage) UpdateUserReputation(ctx context.Context, uid string, mutate storage.ReputationMutation) (models.ReputationRecord, error) {
	args := m.Called(ctx, uid, mutate)
	if err := args.Error(1); err != nil {
		return models.ReputationRecord{}, err
	}
	current, _ := args.Get(0).(models.ReputationRecord)
	return mutate(current), nil
}

func (m *MockStorage) RestoreUserPosts(ctx context.Context, uid string) (int, error) {
	args := m.Called(ctx, uid)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) IncrementCommentCount(ctx context.Context, collection, postID string, delta int) error {
	args := m.Called(ctx, collection, postID, delta)
	return args.Error(0)
}

func (m *MockStorage) ApplyRoomUpdate(ctx context.Context, chatID string, u models.RoomUpdate) error {
	args := m.Called(ctx, chatID, u)
	return args.Error(0)
}

func (m *MockStorage) SetBlockedBy(ctx context.Context, entry models.BlockedBy) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStorage) DeleteBlockedBy(ctx context.Context, user, blocker string) error {
	args := m.Called(ctx, user, blocker)
	return args.Error(0)
}
