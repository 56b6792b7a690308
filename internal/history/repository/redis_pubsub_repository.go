package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"spiritual_growth_service/internal/history/domain"
	"spiritual_growth_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RoomChannel is the pub/sub channel carrying live traffic for a room.
func RoomChannel(room string) string {
	return "chat:room:" + room
}

// PubSub live fan-out of persisted messages. closed fires once when the
// subscription ends for any reason; it may be nil.
type PubSub interface {
	Publish(channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler func(msg domain.Message), closed func()) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish serialize the message and publish it on the channel
func (r *RedisPubSub) Publish(channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, channel, data).Err()
}

// Subscribe listen on the channel, calling handler per decoded message until
// ctx is cancelled or the connection drops.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(msg domain.Message), closed func()) error {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		if closed != nil {
			defer closed()
		}
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					logger.Log.Warn("pubsub channel closed", zap.String("channel", channel))
					return
				}

				var result domain.Message
				if err := json.Unmarshal([]byte(m.Payload), &result); err != nil {
					logger.Log.Error("pubsub decode err :", zap.String("err", fmt.Sprintf("failed to unmarshal message: %v", err)))
					continue
				}
				handler(result)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
