package ports

import (
	"context"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

// AuthEventRecorder accepts audit events without blocking the caller.
type AuthEventRecorder interface {
	Record(event domain.AuthEvent)
}

// AuthEventService processes a single dequeued audit event.
type AuthEventService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}
