package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"spiritual_growth_service/internal/history/app"
	"spiritual_growth_service/internal/history/domain"
	"spiritual_growth_service/internal/history/repository"
	"spiritual_growth_service/internal/history/router"
	"spiritual_growth_service/pkg/database"
	"spiritual_growth_service/pkg/logger"
	testtool "spiritual_growth_service/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	historyApp    *fiber.App
	historyPubSub *repository.RedisPubSub
	historyBase   = "http://127.0.0.1:8091"
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()

	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start MongoDB container: %v", err)
	}

	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start Redis container: %v", err)
	}

	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_history_db")
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongo.Close(ctx)

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort),
		DB:   0,
	})

	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	historyPubSub = repository.NewRedisPubSub(redisClient)

	historyUC := app.NewHistoryUseCase(msgRepo, historyPubSub, nil)

	historyApp = fiber.New()
	router.RegisterRoutes(historyApp, app.NewHistoryHandler(historyUC))

	go func() {
		if err := historyApp.Listen(":8091"); err != nil {
			log.Fatalf("Failed to start history server: %v", err)
		}
	}()
	time.Sleep(2 * time.Second)

	code := m.Run()

	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	historyApp.Shutdown()

	os.Exit(code)
}

func postMessage(t *testing.T, room, senderID, content string) domain.Message {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{
		"room":      room,
		"sender_id": senderID,
		"content":   content,
	})
	res, err := http.Post(historyBase+"/messages", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var saved domain.Message
	require.NoError(t, json.NewDecoder(res.Body).Decode(&saved))
	return saved
}

func TestSendAndListRoundTrip(t *testing.T) {
	first := postMessage(t, "direct-u1-admin", "u1", "first question")
	second := postMessage(t, "direct-u1-admin", "admin", "first answer")

	assert.Equal(t, "admin", first.ReceiverID)
	assert.Equal(t, domain.KindDirect, first.Kind)

	res, err := http.Get(historyBase + "/messages?room=direct-u1-admin&limit=10")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Messages, 2)

	// newest first
	assert.Equal(t, second.ID, body.Messages[0].ID)
	assert.Equal(t, first.ID, body.Messages[1].ID)
}

func TestListRejectsUnknownRoom(t *testing.T) {
	res, err := http.Get(historyBase + "/messages?room=garbage")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSendFansOutOnRoomChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.Message, 1)
	err := historyPubSub.Subscribe(ctx, repository.RoomChannel("group-karma"), func(msg domain.Message) {
		received <- msg
	}, nil)
	require.NoError(t, err)
	time.Sleep(500 * time.Millisecond)

	saved := postMessage(t, "group-karma", "u1", "circle update")

	select {
	case msg := <-received:
		assert.Equal(t, saved.ID, msg.ID)
		assert.Equal(t, "karma", msg.VisibilityLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("no pub/sub delivery")
	}
}

func TestMarkReadPersists(t *testing.T) {
	saved := postMessage(t, "direct-u1-u2", "u1", "read me")
	assert.False(t, saved.IsRead)

	req, _ := http.NewRequest(http.MethodPatch, historyBase+"/messages/"+saved.ID+"/read", nil)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	listRes, err := http.Get(historyBase + "/messages?room=direct-u1-u2&limit=10")
	require.NoError(t, err)
	defer listRes.Body.Close()

	var body struct {
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(listRes.Body).Decode(&body))
	require.NotEmpty(t, body.Messages)
	assert.True(t, body.Messages[0].IsRead)
}
