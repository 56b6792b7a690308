package domain

import (
	"time"

	"spiritual_growth_service/pkg/encrypt"
)

// Tiers the subscription levels a member can hold, lowest first. The tier
// doubles as the visibility scope of the group circle it unlocks.
var Tiers = []string{"seeker", "karma", "dharma"}

// MemberStatus 0=offline, 1=online, 2=ban, 3=delete
type MemberStatus int

const (
	// MemberStatusOffLine member has no live session
	MemberStatusOffLine MemberStatus = iota
	// MemberStatusOnLine member has a live session
	MemberStatusOnLine
	// MemberStatusBan member is blocked from the platform
	MemberStatusBan
	// MemberStatusDelete member account is removed
	MemberStatusDelete
)

// Member is one platform account. Role distinguishes the guide (admin)
// accounts from paying members, Tier is the subscription level that gates
// which group circles the member can join.
type Member struct {
	ID          int64
	MemberID    string
	Email       string
	Password    string
	DisplayName string
	Role        string
	Tier        string
	Status      MemberStatus
}

// MemberSession tracks one logged-in session.
type MemberSession struct {
	Token        string    `json:"Token"`
	MemberID     string    `json:"MemberID"`
	CreatedAt    time.Time `json:"CreatedAt"`
	LastActivity time.Time `json:"LastActivity"`
	ExpiredAt    time.Time `json:"ExpiredAt"`
}

// Profile is the public view other services resolve: display name for chat
// rendering, role for privilege checks, tier for level-room entitlement.
type Profile struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Tier        string `json:"tier"`
}

// IsPasswordMatch compares the stored hash with the input password.
func (m *Member) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(m.Password, inputPwd)
}

// IsExpired checks whether the session is already past its deadline.
func (s *MemberSession) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}

// MemberQuery join conditions are used to query members
type MemberQuery struct {
	ID       *int64  `db:"id"`
	MemberID *string `db:"member_id"`
	Email    *string `db:"email"`
}
