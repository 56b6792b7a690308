package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"spiritual_growth_service/pkg/token"
)

// MemberRoleResolver resolves roles through the member service's profile
// endpoint. An unknown member resolves to the guest role rather than an
// error so a bad id cannot gain privilege.
type MemberRoleResolver struct {
	baseURL string
	client  *http.Client
}

// NewMemberRoleResolver create a MemberRoleResolver against the member
// service base URL, e.g. "http://member_service:8084".
func NewMemberRoleResolver(baseURL string) *MemberRoleResolver {
	return &MemberRoleResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type profileRes struct {
	Success bool `json:"success"`
	Profile struct {
		MemberID string `json:"member_id"`
		Role     string `json:"role"`
	} `json:"profile"`
}

// Resolve a user id to its platform role.
func (r *MemberRoleResolver) Resolve(ctx context.Context, userID string) (token.RoleType, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/members/%s/profile", r.baseURL, userID), nil)
	if err != nil {
		return token.RoleGuest, err
	}

	res, err := r.client.Do(req)
	if err != nil {
		return token.RoleGuest, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return token.RoleGuest, nil
	}
	if res.StatusCode != http.StatusOK {
		return token.RoleGuest, fmt.Errorf("member service status %d", res.StatusCode)
	}

	var body profileRes
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return token.RoleGuest, err
	}

	switch body.Profile.Role {
	case string(token.RoleAdmin):
		return token.RoleAdmin, nil
	case string(token.RoleMember):
		return token.RoleMember, nil
	default:
		return token.RoleGuest, nil
	}
}
