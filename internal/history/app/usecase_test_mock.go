package app

import (
	"context"

	"spiritual_growth_service/internal/history/domain"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByRoom mock paged room query
func (m *MockMessageRepository) FindByRoom(ctx context.Context, room *domain.RoomAddress, limit, offset int64) ([]domain.Message, error) {
	args := m.Called(ctx, room, limit, offset)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkRead mock read flag update
func (m *MockMessageRepository) MarkRead(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// FindOlderThan mock archive fetch
func (m *MockMessageRepository) FindOlderThan(ctx context.Context, cutoff int64) ([]domain.Message, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteOlderThan mock archive prune
func (m *MockMessageRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockPubSub Mock PubSub
type MockPubSub struct {
	mock.Mock
}

// Publish mock publisher
func (m *MockPubSub) Publish(channel string, message interface{}) error {
	args := m.Called(channel, message)
	return args.Error(0)
}

// Subscribe mock subscriber
func (m *MockPubSub) Subscribe(ctx context.Context, channel string, handler func(msg domain.Message), closed func()) error {
	args := m.Called(channel, handler)
	return args.Error(0)
}

// MockEventProducer Mock EventProducer
type MockEventProducer struct {
	mock.Mock
}

// MessagePersisted mock event emission
func (m *MockEventProducer) MessagePersisted(ctx context.Context, msg *domain.Message) {
	m.Called(ctx, msg)
}

// MockObjectStore Mock ObjectStore
type MockObjectStore struct {
	mock.Mock
}

// PutObject mock cold-storage upload
func (m *MockObjectStore) PutObject(ctx context.Context, objectName string, data []byte, contentType string) error {
	args := m.Called(ctx, objectName, data, contentType)
	return args.Error(0)
}
