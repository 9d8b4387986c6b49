// Package session is the single source of truth for a browser session's
// token pair and everything derivable from the access token without a
// network call.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
)

// Store reads and writes one session's token pair. Read paths never fail:
// storage errors are logged and reported as absent tokens.
type Store struct {
	storage   ports.TokenStorage
	sessionID string
	log       zerolog.Logger
	now       func() time.Time
}

var _ ports.SessionStore = (*Store)(nil)

// NewStore binds a Store to sessionID on top of storage.
func NewStore(storage ports.TokenStorage, sessionID string, log zerolog.Logger) *Store {
	return &Store{
		storage:   storage,
		sessionID: sessionID,
		log:       log.With().Str("component", "session_store").Str("session_id", sessionID).Logger(),
		now:       time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// SessionID returns the namespace the store writes under.
func (s *Store) SessionID() string { return s.sessionID }

// SetTokens overwrites both tokens. No well-formedness check is made here.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	pair := domain.TokenPair{AccessToken: access, RefreshToken: refresh}
	if err := s.storage.Save(ctx, s.sessionID, pair); err != nil {
		return fmt.Errorf("set tokens: %w", err)
	}
	return nil
}

// ClearTokens removes both tokens. Clearing an empty store is a no-op.
func (s *Store) ClearTokens(ctx context.Context) error {
	if err := s.storage.Delete(ctx, s.sessionID); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// AccessToken returns the stored access token, if any.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	pair := s.load(ctx)
	return pair.AccessToken, pair.AccessToken != ""
}

// RefreshToken returns the stored refresh token, if any.
func (s *Store) RefreshToken(ctx context.Context) (string, bool) {
	pair := s.load(ctx)
	return pair.RefreshToken, pair.RefreshToken != ""
}

// HasToken reports whether an access token is present. It says nothing
// about validity.
func (s *Store) HasToken(ctx context.Context) bool {
	_, ok := s.AccessToken(ctx)
	return ok
}

// IsExpired is fail-closed: a missing token, a token that cannot be decoded
// or one without an exp claim all count as expired.
func (s *Store) IsExpired(ctx context.Context) bool {
	token, ok := s.AccessToken(ctx)
	if !ok {
		return true
	}
	return TokenExpired(token, s.now())
}

// TokenExpired reports whether token's exp lies at or before now.
func TokenExpired(token string, now time.Time) bool {
	claims, ok := DecodeClaims(token)
	if !ok || claims.ExpiresAt.IsZero() {
		return true
	}
	return !claims.ExpiresAt.After(now)
}

// Claims decodes the current access token; empty when absent or malformed.
func (s *Store) Claims(ctx context.Context) domain.TokenClaims {
	token, ok := s.AccessToken(ctx)
	if !ok {
		return domain.TokenClaims{}
	}
	claims, _ := DecodeClaims(token)
	return claims
}

func (s *Store) Role(ctx context.Context) domain.SystemRole { return s.Claims(ctx).SystemRole }

func (s *Store) Roles(ctx context.Context) []string { return s.Claims(ctx).Roles }

func (s *Store) Permissions(ctx context.Context) []domain.Permission {
	return s.Claims(ctx).Permissions
}

func (s *Store) ProjectMemberships(ctx context.Context) []domain.ProjectMembership {
	return s.Claims(ctx).Projects
}

func (s *Store) UserID(ctx context.Context) domain.ID { return s.Claims(ctx).UserID }

func (s *Store) Email(ctx context.Context) string { return s.Claims(ctx).Email }

// DisplayName prefers the name claim and falls back to the email.
func (s *Store) DisplayName(ctx context.Context) string {
	c := s.Claims(ctx)
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

func (s *Store) load(ctx context.Context) domain.TokenPair {
	pair, err := s.storage.Load(ctx, s.sessionID)
	if err != nil {
		s.log.Warn().Err(err).Msg("token storage read failed, treating session as empty")
		return domain.TokenPair{}
	}
	return pair
}
