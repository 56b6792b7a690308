package repository

import (
	"context"
	"encoding/json"

	"spiritual_growth_service/pkg/database"
	"spiritual_growth_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// OfflineQueue is the queue drained by the notification worker.
const OfflineQueue = "chat_offline_notifications"

type offlineNotification struct {
	ReceiverID string                 `json:"receiver_id"`
	Payload    map[string]interface{} `json:"payload"`
}

// RabbitOfflineNotifier queues delivery misses on RabbitMQ so the recipient
// can be reached out-of-band. Publishing is best-effort: a broker error is
// logged and otherwise swallowed, realtime delivery must not depend on it.
type RabbitOfflineNotifier struct {
	rabbit database.RabbitRepo
}

// NewRabbitOfflineNotifier create a RabbitOfflineNotifier.
func NewRabbitOfflineNotifier(rabbit database.RabbitRepo) *RabbitOfflineNotifier {
	return &RabbitOfflineNotifier{rabbit: rabbit}
}

// DeliveryMissed publishes the missed message onto the offline queue.
func (n *RabbitOfflineNotifier) DeliveryMissed(ctx context.Context, receiverID string, payload map[string]interface{}) {
	body, err := json.Marshal(offlineNotification{
		ReceiverID: receiverID,
		Payload:    payload,
	})
	if err != nil {
		logger.Log.Errorf("offline notification marshal error:", err)
		return
	}

	if err := n.rabbit.Publish("", OfflineQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		logger.Log.Errorf("offline notification publish error:", err,
			zap.String("receiverID", receiverID))
	}
}
