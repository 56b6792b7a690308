package app

import (
	"context"
	"errors"
	"time"

	"spiritual_growth_service/internal/history/domain"
	"spiritual_growth_service/internal/history/repository"
	"spiritual_growth_service/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize int64 = 50
	maxPageSize     int64 = 200
)

// ErrReadOnlyRoom sends into admin views are rejected.
var ErrReadOnlyRoom = errors.New("room is a read-only view")

// HistoryUseCase owns the durable message log: it is the single writer, and
// every successful write is announced on the room's pub/sub channel.
type HistoryUseCase struct {
	msgRepo repository.MessageRepository
	pubSub  repository.PubSub
	events  repository.EventProducer
}

// NewHistoryUseCase create HistoryUseCase. pubSub and events may be nil; the
// corresponding notifications are then skipped.
func NewHistoryUseCase(
	msgRepo repository.MessageRepository,
	pubSub repository.PubSub,
	events repository.EventProducer,
) *HistoryUseCase {
	return &HistoryUseCase{
		msgRepo: msgRepo,
		pubSub:  pubSub,
		events:  events,
	}
}

// Save validates and appends one message addressed by its room name, then
// fans it out on the room channel and the event stream.
func (uc *HistoryUseCase) Save(ctx context.Context, roomName, senderID, content string) (*domain.Message, error) {
	room, err := domain.ParseRoom(roomName)
	if err != nil {
		return nil, err
	}
	if room.IsReadView() {
		return nil, ErrReadOnlyRoom
	}

	msg := &domain.Message{
		ID:              uuid.New().String(),
		Content:         content,
		SenderID:        senderID,
		ReceiverID:      room.ReceiverFor(senderID),
		Kind:            room.Kind,
		VisibilityLevel: room.VisibilityLevel,
		IsRead:          false,
		CreatedAt:       time.Now().Unix(),
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		return nil, err
	}

	if uc.pubSub != nil {
		if err := uc.pubSub.Publish(repository.RoomChannel(roomName), msg); err != nil {
			logger.Log.Errorf("room publish error:", err)
		}
	}
	if uc.events != nil {
		uc.events.MessagePersisted(ctx, msg)
	}

	return msg, nil
}

// List returns one page of a room's messages, newest first. Callers reverse
// to chronological order for display.
func (uc *HistoryUseCase) List(ctx context.Context, roomName string, limit, offset int64) ([]domain.Message, error) {
	room, err := domain.ParseRoom(roomName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return uc.msgRepo.FindByRoom(ctx, room, limit, offset)
}

// MarkRead flips the read flag of one message.
func (uc *HistoryUseCase) MarkRead(ctx context.Context, messageID string) error {
	return uc.msgRepo.MarkRead(ctx, messageID)
}
