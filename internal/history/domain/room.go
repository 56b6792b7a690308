package domain

import (
	"errors"
	"strings"
)

// Room-name convention shared by the realtime layer, the history service
// and the persistent room feed:
//
//	direct-{userA}-admin   conversation between userA and the platform guide
//	direct-{userA}-{userB} two-party conversation
//	group-{level}          one membership level
//	announcements          every member
//	admin-direct-{adminId} admin view over direct traffic with adminId
//	admin-inbox            admin view over all direct traffic

// ErrUnknownRoom the room name does not follow the naming convention.
var ErrUnknownRoom = errors.New("unknown room name")

// RoomAddress is the durable addressing a room name resolves to.
type RoomAddress struct {
	Name string
	Kind MessageKind

	// direct rooms
	UserA string
	UserB string

	// group rooms
	VisibilityLevel string

	// fixed receiver id for rooms whose receiver does not depend on the
	// sender; direct rooms resolve theirs through ReceiverFor
	ReceiverID string

	// admin read views
	AdminID    string
	AdminInbox bool
}

// ParseRoom resolves a room name to its durable addressing.
func ParseRoom(name string) (*RoomAddress, error) {
	switch {
	case name == "announcements":
		return &RoomAddress{
			Name:       name,
			Kind:       KindAnnouncement,
			ReceiverID: ReceiverAll,
		}, nil

	case name == "admin-inbox":
		return &RoomAddress{Name: name, Kind: KindDirect, AdminInbox: true}, nil

	case strings.HasPrefix(name, "admin-direct-"):
		adminID := strings.TrimPrefix(name, "admin-direct-")
		if adminID == "" {
			return nil, ErrUnknownRoom
		}
		return &RoomAddress{Name: name, Kind: KindDirect, AdminID: adminID}, nil

	case strings.HasPrefix(name, "group-"):
		level := strings.TrimPrefix(name, "group-")
		if level == "" {
			return nil, ErrUnknownRoom
		}
		return &RoomAddress{
			Name:            name,
			Kind:            KindGroup,
			VisibilityLevel: level,
		}, nil

	case strings.HasPrefix(name, "direct-"):
		parts := strings.SplitN(strings.TrimPrefix(name, "direct-"), "-", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, ErrUnknownRoom
		}
		return &RoomAddress{
			Name:  name,
			Kind:  KindDirect,
			UserA: parts[0],
			UserB: parts[1],
		}, nil
	}

	return nil, ErrUnknownRoom
}

// ReceiverFor returns the durable receiver id for a message sent into the
// room by senderID. Direct rooms store the other participant, so replies
// from either side stay inside the room's query.
func (r *RoomAddress) ReceiverFor(senderID string) string {
	if r.Kind == KindDirect && r.UserA != "" {
		if senderID == r.UserB {
			return r.UserA
		}
		return r.UserB
	}
	return r.ReceiverID
}

// IsReadView reports whether the room is a filtered admin view rather than a
// writable conversation.
func (r *RoomAddress) IsReadView() bool {
	return r.AdminInbox || r.AdminID != ""
}
