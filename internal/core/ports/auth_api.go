package ports

import (
	"context"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

// AuthResponse is the backend's login / current-user payload.
type AuthResponse struct {
	UserID        domain.ID                  `json:"userId"`
	Email         string                     `json:"email"`
	Name          string                     `json:"name"`
	Picture       string                     `json:"picture"`
	Token         string                     `json:"token"`
	RefreshToken  string                     `json:"refreshToken"`
	Authenticated bool                       `json:"authenticated"`
	Message       string                     `json:"message"`
	Roles         []string                   `json:"roles,omitempty"`
	SystemRole    domain.SystemRole          `json:"systemRole,omitempty"`
	Permissions   []domain.Permission        `json:"permissions,omitempty"`
	Projects      []domain.ProjectMembership `json:"projects,omitempty"`
}

// RefreshResponse is the payload of POST /auth/refresh-token.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// AuthAPI is the backend's authentication surface.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	AdminLogin(ctx context.Context, email, password string) (*AuthResponse, error)
	CurrentUser(ctx context.Context) (*AuthResponse, error)
	Logout(ctx context.Context) error
}

// OAuthClaims are the optional identity fields carried on the OAuth
// callback URL.
type OAuthClaims struct {
	UserID  domain.ID
	Email   string
	Name    string
	Picture string
}
