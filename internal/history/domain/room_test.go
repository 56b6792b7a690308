package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoom_DirectToAdmin(t *testing.T) {
	room, err := ParseRoom("direct-u1-admin")

	assert.NoError(t, err)
	assert.Equal(t, KindDirect, room.Kind)
	assert.Equal(t, "u1", room.UserA)
	assert.Equal(t, ReceiverAdmin, room.UserB)
}

func TestParseRoom_DirectTwoParty(t *testing.T) {
	room, err := ParseRoom("direct-u1-u2")

	assert.NoError(t, err)
	assert.Equal(t, KindDirect, room.Kind)
	assert.Equal(t, "u1", room.UserA)
	assert.Equal(t, "u2", room.UserB)
}

func TestRoomReceiverForEitherSide(t *testing.T) {
	guide, err := ParseRoom("direct-u1-admin")
	assert.NoError(t, err)
	assert.Equal(t, ReceiverAdmin, guide.ReceiverFor("u1"))
	assert.Equal(t, "u1", guide.ReceiverFor(ReceiverAdmin))

	pair, err := ParseRoom("direct-u1-u2")
	assert.NoError(t, err)
	assert.Equal(t, "u2", pair.ReceiverFor("u1"))
	assert.Equal(t, "u1", pair.ReceiverFor("u2"))

	ann, err := ParseRoom("announcements")
	assert.NoError(t, err)
	assert.Equal(t, ReceiverAll, ann.ReceiverFor("u1"))
}

func TestParseRoom_Group(t *testing.T) {
	room, err := ParseRoom("group-karma")

	assert.NoError(t, err)
	assert.Equal(t, KindGroup, room.Kind)
	assert.Equal(t, "karma", room.VisibilityLevel)
	assert.Empty(t, room.ReceiverID)
}

func TestParseRoom_Announcements(t *testing.T) {
	room, err := ParseRoom("announcements")

	assert.NoError(t, err)
	assert.Equal(t, KindAnnouncement, room.Kind)
	assert.Equal(t, ReceiverAll, room.ReceiverID)
}

func TestParseRoom_AdminViews(t *testing.T) {
	direct, err := ParseRoom("admin-direct-guide1")
	assert.NoError(t, err)
	assert.Equal(t, "guide1", direct.AdminID)
	assert.True(t, direct.IsReadView())

	inbox, err := ParseRoom("admin-inbox")
	assert.NoError(t, err)
	assert.True(t, inbox.AdminInbox)
	assert.True(t, inbox.IsReadView())
}

func TestParseRoom_Unknown(t *testing.T) {
	for _, name := range []string{"", "lobby", "direct-", "direct-u1", "group-", "admin-direct-"} {
		_, err := ParseRoom(name)
		assert.ErrorIs(t, err, ErrUnknownRoom, "room name %q", name)
	}
}

func TestMessageValidate(t *testing.T) {
	base := Message{
		ID:       "m1",
		Content:  "hello",
		SenderID: "u1",
	}

	direct := base
	direct.Kind = KindDirect
	assert.ErrorIs(t, direct.Validate(), ErrBadAddressing)
	direct.ReceiverID = "u2"
	assert.NoError(t, direct.Validate())

	group := base
	group.Kind = KindGroup
	assert.ErrorIs(t, group.Validate(), ErrBadAddressing)
	group.VisibilityLevel = "karma"
	assert.NoError(t, group.Validate())

	ann := base
	ann.Kind = KindAnnouncement
	ann.ReceiverID = ReceiverAll
	assert.NoError(t, ann.Validate())
	ann.VisibilityLevel = "karma"
	assert.ErrorIs(t, ann.Validate(), ErrBadAddressing)

	empty := base
	empty.Kind = KindDirect
	empty.ReceiverID = "u2"
	empty.Content = ""
	assert.ErrorIs(t, empty.Validate(), ErrEmptyContent)

	noSender := base
	noSender.Kind = KindDirect
	noSender.ReceiverID = "u2"
	noSender.SenderID = ""
	assert.ErrorIs(t, noSender.Validate(), ErrEmptySender)
}
