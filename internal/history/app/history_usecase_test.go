package app

import (
	"context"
	"testing"
	"time"

	"spiritual_growth_service/internal/history/domain"
	"spiritual_growth_service/internal/history/repository"
	"spiritual_growth_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.SetNewNop()
}

func TestHistoryUseCase_Save(t *testing.T) {
	ctx := context.Background()

	mockMsgRepo := new(MockMessageRepository)
	mockPubSub := new(MockPubSub)
	mockEvents := new(MockEventProducer)

	var saved *domain.Message
	mockMsgRepo.On("Insert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Message)
	}).Return(nil)
	mockPubSub.On("Publish", repository.RoomChannel("direct-u1-admin"), mock.Anything).Return(nil)
	mockEvents.On("MessagePersisted", ctx, mock.Anything).Return()

	uc := NewHistoryUseCase(mockMsgRepo, mockPubSub, mockEvents)
	msg, err := uc.Save(ctx, "direct-u1-admin", "u1", "hello guide")

	assert.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, domain.KindDirect, msg.Kind)
	assert.Equal(t, domain.ReceiverAdmin, msg.ReceiverID)
	assert.False(t, msg.IsRead)
	assert.Equal(t, saved, msg)

	mockMsgRepo.AssertExpectations(t)
	mockPubSub.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestHistoryUseCase_SaveDirectReply(t *testing.T) {
	ctx := context.Background()

	// the guide's reply must be stored against the member, not against the
	// guide's own id, or the room query would never return it
	mockMsgRepo := new(MockMessageRepository)
	var saved *domain.Message
	mockMsgRepo.On("Insert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Message)
	}).Return(nil)

	uc := NewHistoryUseCase(mockMsgRepo, nil, nil)
	msg, err := uc.Save(ctx, "direct-u1-admin", domain.ReceiverAdmin, "hello member")

	assert.NoError(t, err)
	assert.Equal(t, domain.ReceiverAdmin, msg.SenderID)
	assert.Equal(t, "u1", msg.ReceiverID)
	assert.Equal(t, saved, msg)

	// same for the second participant of a two-party room
	msg, err = uc.Save(ctx, "direct-u1-u2", "u2", "hello back")
	assert.NoError(t, err)
	assert.Equal(t, "u1", msg.ReceiverID)

	mockMsgRepo.AssertExpectations(t)
}

func TestHistoryUseCase_SaveGroup(t *testing.T) {
	ctx := context.Background()

	mockMsgRepo := new(MockMessageRepository)
	mockMsgRepo.On("Insert", ctx, mock.Anything).Return(nil)

	uc := NewHistoryUseCase(mockMsgRepo, nil, nil)
	msg, err := uc.Save(ctx, "group-karma", "u1", "hello level")

	assert.NoError(t, err)
	assert.Equal(t, domain.KindGroup, msg.Kind)
	assert.Equal(t, "karma", msg.VisibilityLevel)
	assert.Empty(t, msg.ReceiverID)

	mockMsgRepo.AssertExpectations(t)
}

func TestHistoryUseCase_SaveRejectsReadViews(t *testing.T) {
	uc := NewHistoryUseCase(new(MockMessageRepository), nil, nil)

	_, err := uc.Save(context.Background(), "admin-inbox", "guide1", "hi")
	assert.ErrorIs(t, err, ErrReadOnlyRoom)

	_, err = uc.Save(context.Background(), "no-such-room", "u1", "hi")
	assert.ErrorIs(t, err, domain.ErrUnknownRoom)
}

func TestHistoryUseCase_SaveEmptyContent(t *testing.T) {
	uc := NewHistoryUseCase(new(MockMessageRepository), nil, nil)

	_, err := uc.Save(context.Background(), "direct-u1-u2", "u1", "")
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
}

func TestHistoryUseCase_ListClampsPaging(t *testing.T) {
	ctx := context.Background()

	page := []domain.Message{
		{ID: "m2", Content: "later", SenderID: "u2", CreatedAt: time.Now().Unix()},
		{ID: "m1", Content: "earlier", SenderID: "u1", CreatedAt: time.Now().Unix() - 10},
	}

	mockMsgRepo := new(MockMessageRepository)
	mockMsgRepo.On("FindByRoom", ctx, mock.Anything, defaultPageSize, int64(0)).Return(page, nil).Once()
	mockMsgRepo.On("FindByRoom", ctx, mock.Anything, maxPageSize, int64(10)).Return(page, nil).Once()

	uc := NewHistoryUseCase(mockMsgRepo, nil, nil)

	result, err := uc.List(ctx, "direct-u1-u2", 0, -5)
	assert.NoError(t, err)
	assert.Equal(t, page, result)

	_, err = uc.List(ctx, "direct-u1-u2", 10_000, 10)
	assert.NoError(t, err)

	mockMsgRepo.AssertExpectations(t)
}
