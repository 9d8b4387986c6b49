package apiclient

import (
	"context"
	"net/http"

	"github.com/activity-tracker/tracker-web/internal/core/ports"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthAPI implements ports.AuthAPI over a session's Client.
type AuthAPI struct {
	client *Client
}

func NewAuthAPI(client *Client) *AuthAPI {
	return &AuthAPI{client: client}
}

var _ ports.AuthAPI = (*AuthAPI)(nil)

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*ports.AuthResponse, error) {
	return a.login(ctx, "/auth/login", email, password)
}

func (a *AuthAPI) AdminLogin(ctx context.Context, email, password string) (*ports.AuthResponse, error) {
	return a.login(ctx, "/auth/admin/login", email, password)
}

func (a *AuthAPI) login(ctx context.Context, path, email, password string) (*ports.AuthResponse, error) {
	var resp ports.AuthResponse
	err := a.client.Do(ctx, http.MethodPost, path, credentials{Email: email, Password: password}, &resp, Anonymous())
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAPI) CurrentUser(ctx context.Context) (*ports.AuthResponse, error) {
	var resp ports.AuthResponse
	if err := a.client.Do(ctx, http.MethodGet, "/auth/current-user", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout tells the backend to revoke the session. A 401 here is not worth a
// refresh; the caller clears local state regardless.
func (a *AuthAPI) Logout(ctx context.Context) error {
	return a.client.Do(ctx, http.MethodPost, "/auth/logout", nil, nil, NoRefresh())
}
