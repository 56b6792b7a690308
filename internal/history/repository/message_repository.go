package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spiritual_growth_service/internal/history/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStoreBusy the store signalled connection exhaustion; callers map this to
// HTTP 503 and retry with backoff.
var ErrStoreBusy = errors.New("message store busy")

// ErrMessageNotFound no message matches the given id.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository durable access to the message log
type MessageRepository interface {
	// Insert append one message
	Insert(ctx context.Context, msg *domain.Message) error
	// FindByRoom page through a room's messages, newest first
	FindByRoom(ctx context.Context, room *domain.RoomAddress, limit, offset int64) ([]domain.Message, error)
	// MarkRead flip the read flag of one message
	MarkRead(ctx context.Context, messageID string) error
	// FindOlderThan fetch messages created before the cutoff
	FindOlderThan(ctx context.Context, cutoff int64) ([]domain.Message, error)
	// DeleteOlderThan prune messages created before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return classify(err)
}

// roomFilter translates a room address into the query over durable rows.
func roomFilter(room *domain.RoomAddress) bson.M {
	switch {
	case room.AdminInbox:
		return bson.M{"message_type": domain.KindDirect}

	case room.AdminID != "":
		return bson.M{"$or": bson.A{
			bson.M{"sender_id": room.AdminID},
			bson.M{"receiver_id": room.AdminID},
		}}

	case room.Kind == domain.KindAnnouncement:
		return bson.M{"message_type": domain.KindAnnouncement}

	case room.Kind == domain.KindGroup:
		return bson.M{
			"message_type":     domain.KindGroup,
			"visibility_level": room.VisibilityLevel,
		}

	default:
		return bson.M{
			"message_type": domain.KindDirect,
			"$or": bson.A{
				bson.M{"sender_id": room.UserA, "receiver_id": room.UserB},
				bson.M{"sender_id": room.UserB, "receiver_id": room.UserA},
			},
		}
	}
}

func (r *messageRepository) FindByRoom(ctx context.Context, room *domain.RoomAddress, limit, offset int64) ([]domain.Message, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, roomFilter(room), opts)
	if err != nil {
		return nil, classify(err)
	}

	var messages []domain.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, classify(err)
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, messageID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return classify(err)
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *messageRepository) FindOlderThan(ctx context.Context, cutoff int64) ([]domain.Message, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"created_at": bson.M{"$lt": cutoff}},
		options.Find().SetSort(bson.M{"created_at": 1}),
	)
	if err != nil {
		return nil, classify(err)
	}

	var messages []domain.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, classify(err)
	}
	return messages, nil
}

func (r *messageRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, classify(err)
	}
	return res.DeletedCount, nil
}

// classify folds pool-exhaustion and server-selection timeouts into
// ErrStoreBusy so the HTTP layer can answer 503.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %v", ErrStoreBusy, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "connection pool") || strings.Contains(msg, "too many connections") {
		return fmt.Errorf("%w: %v", ErrStoreBusy, err)
	}
	return err
}
