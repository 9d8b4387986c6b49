package ports

import (
	"context"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

// SessionStore is the read/write view of one session's credentials.
type SessionStore interface {
	SetTokens(ctx context.Context, access, refresh string) error
	AccessToken(ctx context.Context) (string, bool)
	RefreshToken(ctx context.Context) (string, bool)
	ClearTokens(ctx context.Context) error
	HasToken(ctx context.Context) bool
	IsExpired(ctx context.Context) bool
	Claims(ctx context.Context) domain.TokenClaims
}

// TokenRefresher performs the (coalesced) silent refresh.
type TokenRefresher interface {
	Refresh(ctx context.Context) error
}
