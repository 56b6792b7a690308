package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"spiritual_growth_service/internal/realtime/domain"
	"spiritual_growth_service/pkg/logger"
	"spiritual_growth_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// wsSink serializes writes to one websocket connection. The hub fans out
// from multiple goroutines and gorilla conns allow one writer at a time.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// WriteEvent marshal and push one event frame.
func (w *wsSink) WriteEvent(resp domain.WSResponse) error {
	b, _ := json.Marshal(resp)

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

// RealtimeWebsocketHandler owns the websocket read loop for the hub.
type RealtimeWebsocketHandler struct {
	hub *Hub
}

// NewRealtimeWebsocketHandler create RealtimeWebsocketHandler
func NewRealtimeWebsocketHandler(hub *Hub) *RealtimeWebsocketHandler {
	return &RealtimeWebsocketHandler{hub: hub}
}

// HandleConnection is the entry point for one websocket connection.
func (h *RealtimeWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	sink := &wsSink{conn: conn}
	session := h.hub.Connect(sink)

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		h.hub.Disconnect(session)
		logger.Log.Info("websocket close", zap.String("userID", session.UserID()))
		conn.Close()
		cancel()
	}()

	// fiber answers close frames itself, the handler only logs
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		logger.Log.Infof("Received PONG:", appData)
		return nil
	})

	conn.SetPingHandler(func(appData string) error {
		logger.Log.Infof("Received PING:", appData)
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// a valid token on the upgrade request authenticates the session
	// up front, an explicit authenticate action still rebinds it
	if tokenMember, ok := conn.Locals(middlewares.TokenMemberID).(string); ok && tokenMember != "" {
		if err := h.hub.Authenticate(ctx, session, tokenMember); err != nil {
			logger.Log.Errorf("token authenticate error:", err)
		}
	}

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping message"), time.Now().Add(time.Second)); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
				logger.Log.Infof("Ping sent for:", session.UserID())
			case <-ctxClose.Done():
				logger.Log.Infof("Ping goroutine cancelled for:", session.UserID())
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketAction(ctx, session, sink, mt, message)
	}
}

func (h *RealtimeWebsocketHandler) execWebsocketAction(ctx context.Context, session *Session, sink *wsSink, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(ctx, session, sink, msg)

	default:
		h.sendError(sink, "unknown message type")
	}
}

func (h *RealtimeWebsocketHandler) textMessageAction(ctx context.Context, session *Session, sink *wsSink, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err)
		h.sendError(sink, "malformed request")
		return
	}

	var err error
	switch req.Action {
	case string(domain.Authenticate):
		err = h.hub.Authenticate(ctx, session, req.UserID)

	case string(domain.SendMessage):
		err = h.hub.SendDirect(ctx, session, req)

	case string(domain.SendGroupMessage):
		err = h.hub.SendGroup(session, req.Content, req.Level)

	case string(domain.SendAnnouncement):
		err = h.hub.SendAnnouncement(session, req.Content)

	case string(domain.JoinLevel):
		err = h.hub.JoinLevel(session, req.Level)

	case string(domain.TypingStart):
		err = h.hub.Typing(session, req.ReceiverID, true)

	case string(domain.TypingStop):
		err = h.hub.Typing(session, req.ReceiverID, false)

	case string(domain.MarkRead):
		err = h.hub.MarkRead(session, req.MessageID, req.SenderID)

	default:
		h.sendError(sink, "unknown action")
		return
	}

	if err != nil {
		logger.Log.Error("websocket action err",
			zap.String("userID", session.UserID()),
			zap.String("action", req.Action),
			zap.String("err", err.Error()))
		h.sendError(sink, err.Error())
	}
}

func (h *RealtimeWebsocketHandler) sendError(sink *wsSink, errorMsg string) {
	resp := domain.WSResponse{
		Event: string(domain.EventError),
		Payload: map[string]interface{}{
			"error": errorMsg,
		},
		Error: errorMsg,
	}
	if err := sink.WriteEvent(resp); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}
