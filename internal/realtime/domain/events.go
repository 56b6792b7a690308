package domain

// Action websocket request action
type Action string

const (
	// Authenticate websocket action authenticate
	Authenticate Action = "authenticate"
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// SendGroupMessage websocket action send_group_message
	SendGroupMessage Action = "send_group_message"
	// SendAnnouncement websocket action send_announcement
	SendAnnouncement Action = "send_announcement"
	// JoinLevel websocket action join_level
	JoinLevel Action = "join_level"
	// TypingStart websocket action typing_start
	TypingStart Action = "typing_start"
	// TypingStop websocket action typing_stop
	TypingStop Action = "typing_stop"
	// MarkRead websocket action mark_read
	MarkRead Action = "mark_read"
)

// Event server-to-client event name
type Event string

const (
	// EventNewMessage delivery of a direct message
	EventNewMessage Event = "new_message"
	// EventMessageSent echo to the direct-message sender
	EventMessageSent Event = "message_sent"
	// EventNewGroupMessage delivery of a level message
	EventNewGroupMessage Event = "new_group_message"
	// EventGroupMessageSent echo to the level-message sender
	EventGroupMessageSent Event = "group_message_sent"
	// EventNewAnnouncement delivery of an announcement
	EventNewAnnouncement Event = "new_announcement"
	// EventAnnouncementSent echo to the announcement sender
	EventAnnouncementSent Event = "announcement_sent"
	// EventUserTyping typing indicator on
	EventUserTyping Event = "user_typing"
	// EventUserStoppedTyping typing indicator off
	EventUserStoppedTyping Event = "user_stopped_typing"
	// EventMessageRead read receipt to the original sender
	EventMessageRead Event = "message_read"
	// EventError request rejected
	EventError Event = "error"
)

// WSRequest websocket Request
type WSRequest struct {
	Action          string `json:"action"`
	UserID          string `json:"user_id"`
	Content         string `json:"content"`
	ReceiverID      string `json:"receiver_id"`
	SenderID        string `json:"sender_id"`
	MessageType     string `json:"message_type"`
	VisibilityLevel string `json:"visibility_level"`
	Level           string `json:"level"`
	MessageID       string `json:"message_id"`
}

// WSResponse websocket Response
type WSResponse struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// EventSink is one client connection's write side. The websocket handler
// wraps the real connection; tests substitute an in-memory recorder.
type EventSink interface {
	WriteEvent(resp WSResponse) error
}

// PersonalRoom is the room every connection joins at authenticate time.
func PersonalRoom(userID string) string {
	return "user_" + userID
}

// LevelRoom is the fan-out room of one membership level.
func LevelRoom(level string) string {
	return "level_" + level
}
