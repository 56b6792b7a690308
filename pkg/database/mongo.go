package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"spiritual_growth_service/pkg/logger"
)

// NewMongoDB dials MongoDB and verifies the connection with a primary ping,
// retrying per the Connection settings.
func NewMongoDB(ctx context.Context, c Connection, dbName string) (*MongoDB, error) {
	opts := options.Client().ApplyURI(c.ConnectStr)

	var lastErr error
	for attempt := 0; attempt <= c.RetryCount; attempt++ {
		client, err := mongo.Connect(ctx, opts)
		if err == nil {
			if err = client.Ping(ctx, readpref.Primary()); err == nil {
				return &MongoDB{
					Client:   client,
					Database: client.Database(dbName),
				}, nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err

		if attempt < c.RetryCount {
			logger.Log.Infof("mongodb not ready, retrying:", fmt.Sprintf("%d/%d", attempt+1, c.RetryCount))
			time.Sleep(c.RetryInterval * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to connect to MongoDB after retries: %w", lastErr)
}

// Close disconnects the underlying client.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
