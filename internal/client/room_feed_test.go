package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"spiritual_growth_service/internal/history/domain"
	"spiritual_growth_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

// staticResolver resolves from a fixed table, raw id otherwise.
type staticResolver map[string]string

func (r staticResolver) Resolve(_ context.Context, userID string) string {
	if userID == "admin" {
		return AdminDisplayName
	}
	if name, ok := r[userID]; ok {
		return name
	}
	return userID
}

// stubPubSub hands the subscribe handler back to the test so broadcasts
// can be injected directly.
type stubPubSub struct {
	mu        sync.Mutex
	handler   func(domain.Message)
	closed    func()
	published []interface{}
}

func (s *stubPubSub) Publish(channel string, message interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, message)
	return nil
}

func (s *stubPubSub) Subscribe(_ context.Context, _ string, handler func(domain.Message), closed func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	s.closed = closed
	return nil
}

// dropConnection simulates the subscription goroutine ending.
func (s *stubPubSub) dropConnection() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed != nil {
		closed()
	}
}

func (s *stubPubSub) broadcast(msg domain.Message) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	handler(msg)
}

// delayRecorder replaces real sleeps and keeps the requested durations.
type delayRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (d *delayRecorder) sleep(dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delays = append(d.delays, dur)
}

func newTestFeed(t *testing.T, historyURL, room string) (*RoomFeed, *stubPubSub, *delayRecorder) {
	t.Helper()

	pubsub := &stubPubSub{}
	recorder := &delayRecorder{}
	feed := NewRoomFeed(historyURL, room, "u1", pubsub, staticResolver{"u1": "Seeker One"})
	feed.delay = recorder.sleep

	require.NoError(t, feed.Subscribe(context.Background()))
	require.True(t, feed.IsConnected())
	return feed, pubsub, recorder
}

func storedMessage(content, senderID string, createdAt int64) domain.Message {
	return domain.Message{
		ID:        uuid.New().String(),
		Content:   content,
		SenderID:  senderID,
		Kind:      domain.KindDirect,
		CreatedAt: createdAt,
	}
}

func TestLoadPreviousRetriesBusyStoreWithLinearBackoff(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []domain.Message{
				storedMessage("newest", "admin", 200),
				storedMessage("oldest", "u1", 100),
			},
		})
	}))
	defer srv.Close()

	feed, _, recorder := newTestFeed(t, srv.URL, "direct-u1-admin")

	msgs := feed.LoadPrevious(context.Background(), 50)

	require.Len(t, msgs, 2)
	// success after exactly two delayed retries
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, recorder.delays)

	// storage order is newest first, the view is chronological
	assert.Equal(t, "oldest", msgs[0].Content)
	assert.Equal(t, "newest", msgs[1].Content)
	assert.Equal(t, "Seeker One", msgs[0].DisplayName)
	assert.Equal(t, AdminDisplayName, msgs[1].DisplayName)
}

func TestLoadPreviousGivesUpAfterBusyRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	feed, _, recorder := newTestFeed(t, srv.URL, "direct-u1-admin")

	msgs := feed.LoadPrevious(context.Background(), 50)

	assert.Empty(t, msgs)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, recorder.delays)
}

func TestLoadPreviousGenericFailureUsesFixedDelay(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	feed, _, recorder := newTestFeed(t, srv.URL, "direct-u1-admin")

	msgs := feed.LoadPrevious(context.Background(), 50)

	assert.Empty(t, msgs)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, recorder.delays)
}

func TestSendMessageOptimisticRollbackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	feed, pubsub, recorder := newTestFeed(t, srv.URL, "direct-u1-admin")

	err := feed.SendMessage(context.Background(), "hello")

	assert.ErrorIs(t, err, ErrSendFailed)
	// the optimistic entry is gone and nothing was broadcast
	assert.Empty(t, feed.Messages())
	assert.Empty(t, pubsub.published)
	// a non-503 failure is not retried
	assert.Empty(t, recorder.delays)
}

func TestSendMessageRetriesBusyStoreOnce(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var req struct {
			Room     string `json:"room"`
			SenderID string `json:"sender_id"`
			Content  string `json:"content"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "direct-u1-admin", req.Room)
		assert.Equal(t, "u1", req.SenderID)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Message{
			ID:         "durable-1",
			Content:    req.Content,
			SenderID:   req.SenderID,
			ReceiverID: "admin",
			Kind:       domain.KindDirect,
			CreatedAt:  time.Now().Unix(),
		})
	}))
	defer srv.Close()

	feed, _, recorder := newTestFeed(t, srv.URL, "direct-u1-admin")

	require.NoError(t, feed.SendMessage(context.Background(), "hello"))

	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, recorder.delays)

	// the optimistic entry adopted the durable identity
	msgs := feed.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "durable-1", msgs[0].ID)
	assert.Equal(t, "admin", msgs[0].ReceiverID)
}

func TestSendMessageRejectsReadViews(t *testing.T) {
	feed, _, _ := newTestFeed(t, "http://unused", "admin-inbox")

	err := feed.SendMessage(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrReadOnlyFeed)
	assert.Empty(t, feed.Messages())
}

func TestIncomingBroadcastDedup(t *testing.T) {
	feed, pubsub, _ := newTestFeed(t, "http://unused", "group-karma")

	first := storedMessage("the gate is open", "admin", 1000)
	pubsub.broadcast(first)
	require.Len(t, feed.Messages(), 1)

	// same durable id
	pubsub.broadcast(first)
	assert.Len(t, feed.Messages(), 1)

	// different id, same content and display name, one second apart
	near := storedMessage("the gate is open", "admin", 1001)
	pubsub.broadcast(near)
	assert.Len(t, feed.Messages(), 1)

	// outside the window it is a genuine repeat
	later := storedMessage("the gate is open", "admin", 1005)
	pubsub.broadcast(later)
	assert.Len(t, feed.Messages(), 2)

	// different sender with the same words
	other := storedMessage("the gate is open", "u2", 1000)
	pubsub.broadcast(other)
	assert.Len(t, feed.Messages(), 3)
}

func TestBroadcastDedupsAgainstOptimisticEntry(t *testing.T) {
	now := time.Now().Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Message{
			ID:        "durable-9",
			Content:   "hello",
			SenderID:  "u1",
			Kind:      domain.KindGroup,
			CreatedAt: now,
		})
	}))
	defer srv.Close()

	feed, pubsub, _ := newTestFeed(t, srv.URL, "group-karma")

	require.NoError(t, feed.SendMessage(context.Background(), "hello"))
	require.Len(t, feed.Messages(), 1)

	// the live fan-out of the same durable row collapses by id
	pubsub.broadcast(domain.Message{
		ID:        "durable-9",
		Content:   "hello",
		SenderID:  "u1",
		Kind:      domain.KindGroup,
		CreatedAt: now,
	})
	assert.Len(t, feed.Messages(), 1)
}

func TestFeedDisconnectsWhenSubscriptionDrops(t *testing.T) {
	feed, pubsub, _ := newTestFeed(t, "http://history.invalid", "direct-u1-admin")

	require.True(t, feed.IsConnected())

	pubsub.dropConnection()
	assert.False(t, feed.IsConnected())
}
