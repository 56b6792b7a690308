package repository

import (
	"context"
	"encoding/json"

	"spiritual_growth_service/internal/history/domain"
	"spiritual_growth_service/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// EventProducer emits platform events for downstream consumers. Emission is
// best-effort: a broker outage never fails the write it follows.
type EventProducer interface {
	MessagePersisted(ctx context.Context, msg *domain.Message)
}

type kafkaEventProducer struct {
	writer *kafka.Writer
}

// NewKafkaEventProducer create an EventProducer over a kafka writer
func NewKafkaEventProducer(writer *kafka.Writer) EventProducer {
	return &kafkaEventProducer{writer: writer}
}

// MessagePersisted publish a message_persisted event keyed by message id
func (p *kafkaEventProducer) MessagePersisted(ctx context.Context, msg *domain.Message) {
	payload, err := json.Marshal(map[string]interface{}{
		"event":        "message_persisted",
		"message_id":   msg.ID,
		"sender_id":    msg.SenderID,
		"message_type": msg.Kind,
		"created_at":   msg.CreatedAt,
	})
	if err != nil {
		logger.Log.Errorf("event encode error:", err)
		return
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ID),
		Value: payload,
	}); err != nil {
		logger.Log.Errorf("event publish error:", err)
	}
}
