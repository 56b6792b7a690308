package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"spiritual_growth_service/internal/realtime/domain"
	"spiritual_growth_service/pkg/logger"
	"spiritual_growth_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotAuthenticated the connection has not bound an identity yet.
var ErrNotAuthenticated = errors.New("connection not authenticated")

// OfflineNotifier is told about direct messages whose recipient had no live
// connection, so a worker can follow up out-of-band. Best-effort.
type OfflineNotifier interface {
	DeliveryMissed(ctx context.Context, receiverID string, payload map[string]interface{})
}

// Session is one live connection's hub-side state.
type Session struct {
	id     string
	userID string
	role   token.RoleType
	sink   domain.EventSink
}

// UserID the identity bound to the session, empty until authenticate.
func (s *Session) UserID() string {
	return s.userID
}

// Hub brokers realtime events between live connections. Delivery is
// best-effort: a recipient without a live connection is skipped silently,
// the sender always gets its echo. The hub holds no durable state and
// never writes to the message store.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session            // connID -> session
	rooms    map[string]map[string]*Session // room -> connID -> session

	registry *Registry
	roles    domain.RoleResolver
	notifier OfflineNotifier
}

// NewHub create a Hub. roles may be nil (every user treated as a plain
// member); notifier may be nil (delivery misses are only logged).
func NewHub(registry *Registry, roles domain.RoleResolver, notifier OfflineNotifier) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
		registry: registry,
		roles:    roles,
		notifier: notifier,
	}
}

// Connect registers a new unauthenticated session for a connection.
func (h *Hub) Connect(sink domain.EventSink) *Session {
	s := &Session{
		id:   uuid.New().String(),
		sink: sink,
	}

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	return s
}

// Authenticate binds the session to an identity, resolving its role and
// joining it to its personal room. Rebinding a user replaces the previous
// connection in the registry (last-authenticated wins).
func (h *Hub) Authenticate(ctx context.Context, s *Session, userID string) error {
	if userID == "" {
		return errors.New("empty user id")
	}

	role := token.RoleMember
	if h.roles != nil {
		resolved, err := h.roles.Resolve(ctx, userID)
		if err != nil {
			logger.Log.Warn("role resolve failed, treating as member",
				zap.String("userID", userID), zap.Error(err))
		} else {
			role = resolved
		}
	}

	h.mu.Lock()
	s.userID = userID
	s.role = role
	h.joinRoomLocked(s, domain.PersonalRoom(userID))
	h.mu.Unlock()

	h.registry.Bind(userID, s.id, role == token.RoleAdmin)

	logger.Log.Info("session authenticated",
		zap.String("userID", userID), zap.String("role", string(role)))
	return nil
}

// JoinLevel adds the session to a membership-level room. Entitlement to the
// level is the caller's responsibility.
func (h *Hub) JoinLevel(s *Session, level string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}

	h.mu.Lock()
	h.joinRoomLocked(s, domain.LevelRoom(level))
	h.mu.Unlock()
	return nil
}

// SendDirect delivers a direct message to the receiver's live connection if
// it has one, and always echoes message_sent to the sender. A receiver id of
// "admin" routes to the privileged binding.
func (h *Hub) SendDirect(ctx context.Context, s *Session, req domain.WSRequest) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}

	payload := h.messagePayload(s, req.Content)
	payload["receiver_id"] = req.ReceiverID
	payload["message_type"] = req.MessageType
	if req.VisibilityLevel != "" {
		payload["visibility_level"] = req.VisibilityLevel
	}

	var connID string
	var found bool
	if req.ReceiverID == "admin" {
		connID, found = h.registry.LookupAdmin()
	} else {
		connID, found = h.registry.Lookup(req.ReceiverID)
	}

	if found {
		if target, ok := h.session(connID); ok {
			h.write(target, domain.WSResponse{Event: string(domain.EventNewMessage), Payload: payload})
		} else {
			found = false
		}
	}

	if !found {
		logger.Log.Debug("direct delivery miss", zap.String("receiverID", req.ReceiverID))
		if h.notifier != nil {
			h.notifier.DeliveryMissed(ctx, req.ReceiverID, payload)
		}
	}

	h.write(s, domain.WSResponse{Event: string(domain.EventMessageSent), Payload: payload})
	return nil
}

// SendGroup fans a message out to every connection joined to the level's
// room and echoes group_message_sent to the sender.
func (h *Hub) SendGroup(s *Session, content, level string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}

	payload := h.messagePayload(s, content)
	payload["level"] = level

	for _, target := range h.roomMembers(domain.LevelRoom(level)) {
		if target.id == s.id {
			continue
		}
		h.write(target, domain.WSResponse{Event: string(domain.EventNewGroupMessage), Payload: payload})
	}

	h.write(s, domain.WSResponse{Event: string(domain.EventGroupMessageSent), Payload: payload})
	return nil
}

// SendAnnouncement fans a message out to every connected session regardless
// of room membership and echoes announcement_sent to the sender.
func (h *Hub) SendAnnouncement(s *Session, content string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}

	payload := h.messagePayload(s, content)

	for _, target := range h.allSessions() {
		if target.id == s.id {
			continue
		}
		h.write(target, domain.WSResponse{Event: string(domain.EventNewAnnouncement), Payload: payload})
	}

	h.write(s, domain.WSResponse{Event: string(domain.EventAnnouncementSent), Payload: payload})
	return nil
}

// Typing forwards a typing indicator to the receiver's live connection.
// on selects user_typing / user_stopped_typing.
func (h *Hub) Typing(s *Session, receiverID string, on bool) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}

	event := domain.EventUserTyping
	if !on {
		event = domain.EventUserStoppedTyping
	}

	h.deliverToUser(receiverID, domain.WSResponse{
		Event: string(event),
		Payload: map[string]interface{}{
			"sender_id": s.userID,
		},
	})
	return nil
}

// MarkRead notifies the original sender of a message that it has been read.
func (h *Hub) MarkRead(s *Session, messageID, senderID string) error {
	if s.userID == "" {
		return ErrNotAuthenticated
	}

	h.deliverToUser(senderID, domain.WSResponse{
		Event: string(domain.EventMessageRead),
		Payload: map[string]interface{}{
			"message_id": messageID,
			"reader_id":  s.userID,
		},
	})
	return nil
}

// Disconnect removes the session from every room and releases its registry
// bindings. A newer session of the same user is untouched.
func (h *Hub) Disconnect(s *Session) {
	h.registry.Release(s.id)

	h.mu.Lock()
	delete(h.sessions, s.id)
	for room, members := range h.rooms {
		delete(members, s.id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	if s.userID != "" {
		logger.Log.Info("session disconnected", zap.String("userID", s.userID))
	}
}

// messagePayload builds the common wire payload: the request content plus a
// server-assigned transient id, timestamp and unread flag.
func (h *Hub) messagePayload(s *Session, content string) map[string]interface{} {
	return map[string]interface{}{
		"id":         uuid.New().String(),
		"content":    content,
		"sender_id":  s.userID,
		"is_read":    false,
		"created_at": time.Now().Unix(),
	}
}

// deliverToUser best-effort delivery to a user's registered connection.
func (h *Hub) deliverToUser(userID string, resp domain.WSResponse) {
	connID, ok := h.registry.Lookup(userID)
	if !ok {
		return
	}
	if target, ok := h.session(connID); ok {
		h.write(target, resp)
	}
}

func (h *Hub) session(connID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.sessions[connID]
	return s, ok
}

func (h *Hub) roomMembers(room string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]*Session, 0, len(h.rooms[room]))
	for _, s := range h.rooms[room] {
		members = append(members, s)
	}
	return members
}

func (h *Hub) allSessions() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (h *Hub) joinRoomLocked(s *Session, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Session)
	}
	h.rooms[room][s.id] = s
}

// write pushes one event to a sink. A write failure means the connection is
// going away; its own read loop will run the disconnect path.
func (h *Hub) write(s *Session, resp domain.WSResponse) {
	if err := s.sink.WriteEvent(resp); err != nil {
		logger.Log.Errorf("event write error:", err, zap.String("userID", s.userID))
	}
}
