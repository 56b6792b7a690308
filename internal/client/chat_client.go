package client

import (
	"encoding/json"
	"sync"

	realtime "spiritual_growth_service/internal/realtime/domain"
	"spiritual_growth_service/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ChatClient owns one hub connection for one user. Typed sends attach the
// user's id and forward to the hub; every send is a silent no-op while the
// connection is down, callers gate on IsConnected.
type ChatClient struct {
	hubURL string
	userID string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	events chan realtime.WSResponse
	done   chan struct{}
}

// NewChatClient create a ChatClient for hubURL (ws://host:port/ws). An
// empty userID yields a client that never connects.
func NewChatClient(hubURL, userID string) *ChatClient {
	return &ChatClient{
		hubURL: hubURL,
		userID: userID,
		events: make(chan realtime.WSResponse, 64),
		done:   make(chan struct{}),
	}
}

// Connect dials the hub and authenticates as the client's user. Incoming
// events start flowing on Events after a successful connect.
func (c *ChatClient) Connect() error {
	if c.userID == "" {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.hubURL, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.send(realtime.WSRequest{
		Action: string(realtime.Authenticate),
		UserID: c.userID,
	}); err != nil {
		c.Close()
		return err
	}

	go c.readLoop(conn)
	return nil
}

// Events incoming hub events. Closed when the connection ends.
func (c *ChatClient) Events() <-chan realtime.WSResponse {
	return c.events
}

// IsConnected reports whether the hub connection is live.
func (c *ChatClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SendMessage direct message to one receiver. receiverID "admin" routes to
// the privileged connection.
func (c *ChatClient) SendMessage(content, receiverID, messageType, visibilityLevel string) {
	c.forward(realtime.WSRequest{
		Action:          string(realtime.SendMessage),
		Content:         content,
		ReceiverID:      receiverID,
		SenderID:        c.userID,
		MessageType:     messageType,
		VisibilityLevel: visibilityLevel,
	})
}

// SendGroupMessage message to every connection joined to a level.
func (c *ChatClient) SendGroupMessage(content, level string) {
	c.forward(realtime.WSRequest{
		Action:   string(realtime.SendGroupMessage),
		Content:  content,
		Level:    level,
		SenderID: c.userID,
	})
}

// SendAnnouncement broadcast to every connected client.
func (c *ChatClient) SendAnnouncement(content string) {
	c.forward(realtime.WSRequest{
		Action:   string(realtime.SendAnnouncement),
		Content:  content,
		SenderID: c.userID,
	})
}

// JoinLevel join a membership-level room.
func (c *ChatClient) JoinLevel(level string) {
	c.forward(realtime.WSRequest{
		Action: string(realtime.JoinLevel),
		Level:  level,
	})
}

// StartTyping typing indicator on towards one receiver.
func (c *ChatClient) StartTyping(receiverID string) {
	c.forward(realtime.WSRequest{
		Action:     string(realtime.TypingStart),
		ReceiverID: receiverID,
		SenderID:   c.userID,
	})
}

// StopTyping typing indicator off.
func (c *ChatClient) StopTyping(receiverID string) {
	c.forward(realtime.WSRequest{
		Action:     string(realtime.TypingStop),
		ReceiverID: receiverID,
		SenderID:   c.userID,
	})
}

// MarkAsRead notify the original sender that their message was read.
func (c *ChatClient) MarkAsRead(messageID, senderID string) {
	c.forward(realtime.WSRequest{
		Action:    string(realtime.MarkRead),
		MessageID: messageID,
		SenderID:  senderID,
	})
}

// Close tears the connection down. The hub's disconnect handling reclaims
// registry state, no explicit leave call is needed.
func (c *ChatClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return
	}
	c.connected = false
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (c *ChatClient) forward(req realtime.WSRequest) {
	if !c.IsConnected() {
		return
	}
	if err := c.send(req); err != nil {
		logger.Log.Errorf("hub send error:", err, zap.String("action", req.Action))
	}
}

func (c *ChatClient) send(req realtime.WSRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *ChatClient) readLoop(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		close(c.events)
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var resp realtime.WSResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			logger.Log.Errorf("hub event unmarshal error:", err)
			continue
		}

		select {
		case c.events <- resp:
		default:
			// a stalled consumer misses events rather than blocking the loop
			logger.Log.Warn("event channel full, dropping event", zap.String("event", resp.Event))
		}
	}
}
