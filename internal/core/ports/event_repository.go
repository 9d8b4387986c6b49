package ports

import (
	"context"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

// AuthEventRepository persists the auth audit trail.
type AuthEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}
