package domain

import "errors"

// MessageKind determines how a message is addressed.
type MessageKind string

const (
	// KindDirect one recipient, ReceiverID required
	KindDirect MessageKind = "direct"
	// KindGroup one membership level, VisibilityLevel required
	KindGroup MessageKind = "group"
	// KindAnnouncement every member, no receiver and no level
	KindAnnouncement MessageKind = "announcement"
)

// ReceiverAdmin is the durable receiver id of the platform guide.
const ReceiverAdmin = "admin"

// ReceiverAll is the durable receiver id used for announcements.
const ReceiverAll = "all"

var (
	// ErrEmptyContent message content must not be empty
	ErrEmptyContent = errors.New("message content is empty")
	// ErrEmptySender message sender must not be empty
	ErrEmptySender = errors.New("message sender is empty")
	// ErrBadAddressing kind and receiver/level fields do not agree
	ErrBadAddressing = errors.New("message addressing fields do not match kind")
)

// Message is one durable chat message.
type Message struct {
	ID              string      `bson:"_id" json:"id"`
	Content         string      `bson:"content" json:"content"`
	SenderID        string      `bson:"sender_id" json:"sender_id"`
	ReceiverID      string      `bson:"receiver_id,omitempty" json:"receiver_id,omitempty"`
	Kind            MessageKind `bson:"message_type" json:"message_type"`
	VisibilityLevel string      `bson:"visibility_level,omitempty" json:"visibility_level,omitempty"`
	IsRead          bool        `bson:"is_read" json:"is_read"`
	CreatedAt       int64       `bson:"created_at" json:"created_at"`
}

// Validate enforces the addressing invariants per kind.
func (m *Message) Validate() error {
	if m.Content == "" {
		return ErrEmptyContent
	}
	if m.SenderID == "" {
		return ErrEmptySender
	}

	switch m.Kind {
	case KindDirect:
		if m.ReceiverID == "" {
			return ErrBadAddressing
		}
	case KindGroup:
		if m.VisibilityLevel == "" {
			return ErrBadAddressing
		}
	case KindAnnouncement:
		// announcements carry the "all" receiver and no level
		if m.VisibilityLevel != "" {
			return ErrBadAddressing
		}
	default:
		return ErrBadAddressing
	}
	return nil
}
