package ports

import (
	"context"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

// Fixed key names under which the token pair is persisted.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// TokenStorage persists token pairs per browser session. It only exposes
// pair-level writes so the two tokens can never go stale individually.
type TokenStorage interface {
	// Load returns the stored pair, or an empty pair when nothing is stored.
	Load(ctx context.Context, sessionID string) (domain.TokenPair, error)
	Save(ctx context.Context, sessionID string, pair domain.TokenPair) error
	// Delete is idempotent.
	Delete(ctx context.Context, sessionID string) error
}
