package unit

import (
	"testing"
	"time"

	"spiritual_growth_service/internal/member/domain"
	"spiritual_growth_service/pkg/encrypt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberPasswordMatch(t *testing.T) {
	hashed, err := encrypt.HashPassword("!!Securepassword111")
	require.NoError(t, err)

	member := domain.Member{
		ID:       1,
		Email:    "user@example.com",
		Password: hashed,
	}

	assert.True(t, member.IsPasswordMatch("!!Securepassword111") == nil, "should match correct password")
	assert.False(t, member.IsPasswordMatch("wrongpass") == nil, "should not match incorrect password")
}

func TestMemberSessionExpiration(t *testing.T) {
	session := domain.MemberSession{
		Token:        "abcd1234",
		MemberID:     "1",
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		ExpiredAt:    time.Now().Add(-1 * time.Minute),
	}

	assert.True(t, session.IsExpired(), "session should be expired")

	session.ExpiredAt = time.Now().Add(time.Hour)
	assert.False(t, session.IsExpired(), "session should still be valid")
}
