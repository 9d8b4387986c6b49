package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
)

type authEventService struct {
	repo ports.AuthEventRepository
	log  zerolog.Logger
}

// NewAuthEventService returns an AuthEventService. repo may be nil, in which
// case events are only logged.
func NewAuthEventService(repo ports.AuthEventRepository, log zerolog.Logger) ports.AuthEventService {
	return &authEventService{
		repo: repo,
		log:  log.With().Str("component", "auth_audit").Logger(),
	}
}

// Process logs a single auth event and appends it to the audit trail.
func (s *authEventService) Process(ctx context.Context, event domain.AuthEvent) error {
	if event.Type == "" {
		return fmt.Errorf("process auth event: %w: missing type", domain.ErrValidation)
	}

	level := zerolog.InfoLevel
	switch event.Type {
	case domain.EventLoginFailed, domain.EventRefreshFailed, domain.EventSessionRejected:
		level = zerolog.WarnLevel
	}
	s.log.WithLevel(level).
		Str("event", string(event.Type)).
		Str("session_id", event.SessionID).
		Str("user_id", event.UserID.String()).
		Str("email", event.Email).
		Str("reason", event.Reason).
		Time("occurred_at", event.OccurredAt).
		Msg("auth event")

	if s.repo == nil {
		return nil
	}
	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("process auth event: insert: %w", err)
	}
	return nil
}
