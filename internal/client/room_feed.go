package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"spiritual_growth_service/internal/history/domain"
	"spiritual_growth_service/internal/history/repository"
	"spiritual_growth_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSendFailed the store rejected a send and the optimistic entry was
// rolled back.
var ErrSendFailed = errors.New("message send failed")

// ErrReadOnlyFeed sends into an admin read view are rejected.
var ErrReadOnlyFeed = errors.New("room is a read-only view")

// FeedMessage is one entry of the local room view: the durable message
// fields plus the resolved sender display name.
type FeedMessage struct {
	domain.Message
	DisplayName string `json:"display_name"`
}

// RoomFeed is a room-scoped chat view backed by the durable history
// service plus live pub/sub delivery. It keeps an ordered local message
// list with optimistic sends and deduplicated live broadcasts.
type RoomFeed struct {
	historyURL string
	room       string
	userID     string

	pubsub   repository.PubSub
	resolver DisplayNameResolver
	client   *http.Client
	delay    DelayFunc

	mu        sync.Mutex
	messages  []FeedMessage
	connected bool

	// sends are serialized so optimistic append and rollback of
	// concurrent sends cannot interleave
	sendMu sync.Mutex
}

// NewRoomFeed create a RoomFeed for one room on behalf of one user.
func NewRoomFeed(historyURL, room, userID string, pubsub repository.PubSub, resolver DisplayNameResolver) *RoomFeed {
	return &RoomFeed{
		historyURL: historyURL,
		room:       room,
		userID:     userID,
		pubsub:     pubsub,
		resolver:   resolver,
		client:     &http.Client{Timeout: 10 * time.Second},
		delay:      time.Sleep,
	}
}

// Subscribe starts live delivery for the room. Connected state follows the
// subscription lifecycle: true after a successful subscribe, false once the
// subscribe fails or the subscription ends (ctx done, connection dropped).
func (f *RoomFeed) Subscribe(ctx context.Context) error {
	err := f.pubsub.Subscribe(ctx, repository.RoomChannel(f.room), f.handleIncoming, func() {
		f.setConnected(false)
	})
	if err != nil {
		f.setConnected(false)
		return err
	}
	f.setConnected(true)
	return nil
}

// IsConnected reports whether live delivery is active.
func (f *RoomFeed) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Messages a snapshot of the local view in chronological order.
func (f *RoomFeed) Messages() []FeedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]FeedMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

// LoadPrevious fetches up to limit prior messages and replaces the local
// view with them in chronological order. Store exhaustion (503) is retried
// three times with linear backoff, any other failure twice with a fixed
// delay; exhausted retries degrade to an empty view.
func (f *RoomFeed) LoadPrevious(ctx context.Context, limit int) []FeedMessage {
	busyTries, genericTries := 0, 0

	for {
		msgs, err := f.fetchPage(ctx, limit)
		if err == nil {
			loaded := make([]FeedMessage, 0, len(msgs))
			// storage returns newest first, display wants chronological
			for i := len(msgs) - 1; i >= 0; i-- {
				loaded = append(loaded, FeedMessage{
					Message:     msgs[i],
					DisplayName: f.resolver.Resolve(ctx, msgs[i].SenderID),
				})
			}

			f.mu.Lock()
			f.messages = loaded
			f.mu.Unlock()
			return loaded
		}

		if errors.Is(err, errStoreBusy) {
			busyTries++
			if busyTries > storeBusyRetries {
				logger.Log.Warn("history load gave up after busy retries", zap.String("room", f.room))
				return []FeedMessage{}
			}
			f.delay(time.Duration(busyTries) * storeBusyBackoff)
			continue
		}

		genericTries++
		if genericTries > genericRetries {
			logger.Log.Warn("history load gave up", zap.String("room", f.room), zap.String("err", err.Error()))
			return []FeedMessage{}
		}
		f.delay(genericRetryDelay)
	}
}

// SendMessage appends the message optimistically, writes it to the history
// service and lets the service's pub/sub fan-out deliver it to other
// subscribers. A busy store gets exactly one delayed retry with the
// optimistic entry left in place; any other failure rolls the entry back.
func (f *RoomFeed) SendMessage(ctx context.Context, content string) error {
	addr, err := domain.ParseRoom(f.room)
	if err != nil {
		return err
	}
	if addr.IsReadView() {
		return ErrReadOnlyFeed
	}

	f.sendMu.Lock()
	defer f.sendMu.Unlock()

	optimistic := FeedMessage{
		Message: domain.Message{
			ID:        uuid.New().String(),
			Content:   content,
			SenderID:  f.userID,
			CreatedAt: time.Now().Unix(),
		},
		DisplayName: f.resolver.Resolve(ctx, f.userID),
	}

	f.mu.Lock()
	f.messages = append(f.messages, optimistic)
	f.mu.Unlock()

	saved, err := f.postMessage(ctx, content)
	if errors.Is(err, errStoreBusy) {
		// the optimistic entry stays visible during the wait
		f.delay(sendBusyRetryDelay)
		saved, err = f.postMessage(ctx, content)
	}

	if err != nil {
		f.removeMessage(optimistic.ID)
		logger.Log.Warn("message send rolled back",
			zap.String("room", f.room), zap.String("err", err.Error()))
		return ErrSendFailed
	}

	// adopt the durable identity so the live broadcast of the same
	// message dedups by id
	f.mu.Lock()
	for i := range f.messages {
		if f.messages[i].ID == optimistic.ID {
			f.messages[i].Message = *saved
			break
		}
	}
	f.mu.Unlock()
	return nil
}

// errStoreBusy internal marker for the 503 contract.
var errStoreBusy = errors.New("store busy")

func (f *RoomFeed) fetchPage(ctx context.Context, limit int) ([]domain.Message, error) {
	endpoint := fmt.Sprintf("%s/messages?room=%s&limit=%d&offset=0",
		f.historyURL, url.QueryEscape(f.room), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusServiceUnavailable {
		return nil, errStoreBusy
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history status %d", res.StatusCode)
	}

	var body struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Messages, nil
}

func (f *RoomFeed) postMessage(ctx context.Context, content string) (*domain.Message, error) {
	payload, err := json.Marshal(map[string]string{
		"room":      f.room,
		"sender_id": f.userID,
		"content":   content,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.historyURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusServiceUnavailable {
		return nil, errStoreBusy
	}
	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history status %d", res.StatusCode)
	}

	var saved domain.Message
	if err := json.NewDecoder(res.Body).Decode(&saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// handleIncoming merges one live broadcast into the local view. The
// transient id of an optimistic entry is not comparable with the durable
// id, so dedup also matches on content and display name within one second.
func (f *RoomFeed) handleIncoming(msg domain.Message) {
	displayName := f.resolver.Resolve(context.Background(), msg.SenderID)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.messages {
		if existing.ID == msg.ID {
			return
		}
		if existing.Content == msg.Content &&
			existing.DisplayName == displayName &&
			within(existing.CreatedAt, msg.CreatedAt, time.Second) {
			return
		}
	}

	f.messages = append(f.messages, FeedMessage{Message: msg, DisplayName: displayName})
}

func (f *RoomFeed) removeMessage(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return
		}
	}
}

func (f *RoomFeed) setConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

func within(a, b int64, d time.Duration) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= int64(d/time.Second)
}
