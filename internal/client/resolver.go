package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"spiritual_growth_service/pkg/logger"
)

// AdminDisplayName label shown for the privileged "admin" sender id.
const AdminDisplayName = "Admin"

// DisplayNameResolver maps an opaque user id to the name shown in chat.
// Resolution is best-effort: when it is unavailable the raw id is shown.
type DisplayNameResolver interface {
	Resolve(ctx context.Context, userID string) string
}

// MemberDisplayNameResolver resolves display names through the member
// service, caching results for the lifetime of the resolver.
type MemberDisplayNameResolver struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	cache map[string]string
}

// NewMemberDisplayNameResolver create a MemberDisplayNameResolver.
func NewMemberDisplayNameResolver(baseURL string) *MemberDisplayNameResolver {
	return &MemberDisplayNameResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		cache:   make(map[string]string),
	}
}

// Resolve a user id to its display name. "admin" resolves to the fixed
// Admin label without a lookup.
func (r *MemberDisplayNameResolver) Resolve(ctx context.Context, userID string) string {
	if userID == "admin" {
		return AdminDisplayName
	}

	r.mu.Lock()
	if name, ok := r.cache[userID]; ok {
		r.mu.Unlock()
		return name
	}
	r.mu.Unlock()

	name, err := r.fetch(ctx, userID)
	if err != nil {
		logger.Log.Debug("display name resolve failed, using raw id")
		return userID
	}

	r.mu.Lock()
	r.cache[userID] = name
	r.mu.Unlock()
	return name
}

func (r *MemberDisplayNameResolver) fetch(ctx context.Context, userID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/members/%s/profile", r.baseURL, userID), nil)
	if err != nil {
		return "", err
	}

	res, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("member service status %d", res.StatusCode)
	}

	var body struct {
		Profile struct {
			DisplayName string `json:"display_name"`
		} `json:"profile"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Profile.DisplayName == "" {
		return "", fmt.Errorf("empty display name for %s", userID)
	}
	return body.Profile.DisplayName, nil
}
