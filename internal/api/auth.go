package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tgienger/dash/internal/models"
)

// LoginInput holds login credentials.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a UserInfo carrying a token.
func (c *Client) Login(ctx context.Context, in LoginInput) (models.UserInfo, error) {
	return call[models.UserInfo](ctx, c, http.MethodPost, "/api/auth/login", in, authOptional)
}

// AnonymousUserInfo fetches the capability set granted without login.
func (c *Client) AnonymousUserInfo(ctx context.Context) (models.UserInfo, error) {
	return call[models.UserInfo](ctx, c, http.MethodGet, "/api/auth/anonymous", nil, authOptional)
}

// Health reports the backend status. The endpoint returns a bare object, not an envelope.
func (c *Client) Health(ctx context.Context) (models.Health, error) {
	var h models.Health
	raw, err := c.send(ctx, http.MethodGet, "/api/system/health", nil, authOptional)
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(raw, &h); err != nil {
		return h, &TransportError{Op: "decode health", Err: err}
	}
	return h, nil
}
