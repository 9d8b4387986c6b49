package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
	"github.com/activity-tracker/tracker-web/internal/core/session"
)

// Status is the coarse authentication state of a browser session.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

const DefaultRecheckInterval = 5 * time.Minute

const (
	msgInvalidCredentials = "Invalid email or password."
	msgSessionExpired     = "Your session has expired. Please log in again."
	msgOAuthFailed        = "Sign-in could not be completed. Please try again."
	msgUnexpected         = "Something went wrong. Please try again."
)

var errMissingRefreshToken = fmt.Errorf("%w: login response without refresh token", domain.ErrUnexpectedResponse)

// Snapshot is a consistent read of an AuthState. Identity is shared and must
// be treated as read-only; it is replaced, never mutated.
type Snapshot struct {
	Status    Status
	Identity  *domain.Identity
	Error     string
	CheckedAt time.Time
}

// AuthState owns one browser session's identity and drives its lifecycle.
// The mutex guards only the fields below it and is never held across a
// backend call.
type AuthState struct {
	sessionID string
	store     ports.SessionStore
	api       ports.AuthAPI
	refresher ports.TokenRefresher
	audit     ports.AuthEventRecorder
	log       zerolog.Logger
	now       func() time.Time
	recheck   time.Duration

	checks singleflight.Group

	mu        sync.Mutex
	status    Status
	identity  *domain.Identity
	errMsg    string
	checkedAt time.Time
	settled   chan struct{}
	// gen is bumped by every transition. A session check whose starting
	// generation is stale discards its result.
	gen uint64
}

// AuthStateOption customizes an AuthState.
type AuthStateOption func(*AuthState)

// WithRecheckInterval sets how old the last session check may get before
// EnsureChecked schedules another one.
func WithRecheckInterval(d time.Duration) AuthStateOption {
	return func(s *AuthState) {
		if d > 0 {
			s.recheck = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) AuthStateOption {
	return func(s *AuthState) { s.now = now }
}

// NewAuthState returns a pending AuthState. audit may be nil.
func NewAuthState(
	sessionID string,
	store ports.SessionStore,
	api ports.AuthAPI,
	refresher ports.TokenRefresher,
	audit ports.AuthEventRecorder,
	log zerolog.Logger,
	opts ...AuthStateOption,
) *AuthState {
	s := &AuthState{
		sessionID: sessionID,
		store:     store,
		api:       api,
		refresher: refresher,
		audit:     audit,
		log:       log.With().Str("component", "auth_state").Str("session_id", sessionID).Logger(),
		now:       time.Now,
		recheck:   DefaultRecheckInterval,
		status:    StatusPending,
		settled:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginWithCredentials authenticates against the backend. On failure the
// previous identity and tokens are left untouched.
func (s *AuthState) LoginWithCredentials(ctx context.Context, email, password string, asAdmin bool) (*domain.Identity, error) {
	login := s.api.Login
	if asAdmin {
		login = s.api.AdminLogin
	}

	resp, err := login(ctx, email, password)
	if err == nil && (resp == nil || resp.Token == "") {
		err = domain.ErrInvalidCredentials
	}
	if err == nil && resp.RefreshToken == "" {
		err = errMissingRefreshToken
	}
	if err != nil {
		msg := describe(err, msgUnexpected)
		if errors.Is(err, domain.ErrAuthentication) || errors.Is(err, domain.ErrInvalidCredentials) {
			msg = msgInvalidCredentials
			if resp != nil && resp.Message != "" {
				msg = resp.Message
			}
			err = fmt.Errorf("login: %w: %w", domain.ErrInvalidCredentials, err)
		} else {
			err = fmt.Errorf("login: %w", err)
		}
		s.fail(msg)
		s.emit(domain.EventLoginFailed, "", email, msg)
		return nil, err
	}

	if err := s.store.SetTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		s.fail(msgUnexpected)
		s.emit(domain.EventLoginFailed, "", email, err.Error())
		return nil, fmt.Errorf("login: %w", err)
	}

	claims, _ := session.DecodeClaims(resp.Token)
	identity := identityFromResponse(resp, claims)
	s.authenticate(identity)
	s.emit(domain.EventLoginSucceeded, identity.ID, identity.Email, "")
	s.log.Info().Str("user_id", identity.ID.String()).Bool("admin_login", asAdmin).Msg("login succeeded")
	return identity, nil
}

// CompleteOAuthCallback stores the tokens delivered on the provider redirect
// and builds the identity from the supplied claims. Both tokens are
// required.
func (s *AuthState) CompleteOAuthCallback(ctx context.Context, token, refreshToken string, oc ports.OAuthClaims) (*domain.Identity, error) {
	if token == "" || refreshToken == "" {
		s.fail(msgOAuthFailed)
		s.emit(domain.EventLoginFailed, oc.UserID, oc.Email, domain.ErrMissingCallbackToken.Error())
		return nil, domain.ErrMissingCallbackToken
	}

	if err := s.store.SetTokens(ctx, token, refreshToken); err != nil {
		s.fail(msgOAuthFailed)
		return nil, fmt.Errorf("oauth callback: %w", err)
	}

	claims, _ := session.DecodeClaims(token)
	identity := identityFromOAuth(oc, claims)
	s.authenticate(identity)
	s.emit(domain.EventOAuthCallback, identity.ID, identity.Email, "")
	return identity, nil
}

// CheckSessionStatus revalidates the stored tokens against the backend.
// Concurrent callers share one check.
func (s *AuthState) CheckSessionStatus(ctx context.Context) error {
	ch := s.startCheck(ctx)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// EnsureChecked schedules a background session check when none has run yet
// or the last one is older than the recheck interval. It never blocks.
func (s *AuthState) EnsureChecked() {
	s.mu.Lock()
	due := s.checkedAt.IsZero() || s.now().Sub(s.checkedAt) >= s.recheck
	s.mu.Unlock()
	if due {
		s.startCheck(context.Background())
	}
}

func (s *AuthState) startCheck(ctx context.Context) <-chan singleflight.Result {
	return s.checks.DoChan("check", func() (any, error) {
		return nil, s.checkSession(context.WithoutCancel(ctx))
	})
}

func (s *AuthState) checkSession(ctx context.Context) error {
	gen := s.generation()

	if !s.store.HasToken(ctx) {
		if prev, ok := s.logOutAt(gen, ""); ok && prev != nil {
			s.emit(domain.EventSessionRejected, prev.ID, prev.Email, "no token")
		}
		return nil
	}

	if s.store.IsExpired(ctx) {
		if err := s.refresher.Refresh(ctx); err != nil {
			if s.generation() != gen {
				return s.superseded()
			}
			s.clearTokens(ctx)
			if prev, ok := s.logOutAt(gen, msgSessionExpired); ok {
				s.emitPrev(domain.EventRefreshFailed, prev, err.Error())
			}
			return fmt.Errorf("session check: refresh: %w", err)
		}
		s.emit(domain.EventTokenRefreshed, "", "", "")
	}

	resp, err := s.api.CurrentUser(ctx)
	if err != nil {
		if s.generation() != gen {
			return s.superseded()
		}
		s.clearTokens(ctx)
		if prev, ok := s.logOutAt(gen, describe(err, msgSessionExpired)); ok {
			s.emitPrev(domain.EventSessionRejected, prev, err.Error())
		}
		return fmt.Errorf("session check: %w", err)
	}

	identity := identityFromResponse(resp, s.store.Claims(ctx))
	was, ok := s.authenticateAt(gen, identity)
	if !ok {
		return s.superseded()
	}
	if !was {
		s.emit(domain.EventSessionRestored, identity.ID, identity.Email, "")
	}
	return nil
}

// superseded reports a check whose result was dropped because a login or
// logout happened while it ran.
func (s *AuthState) superseded() error {
	s.log.Debug().Msg("session check superseded by a newer transition")
	return nil
}

// Logout revokes the session on the backend on a best-effort basis and then
// unconditionally clears local state.
func (s *AuthState) Logout(ctx context.Context) error {
	if s.store.HasToken(ctx) {
		if err := s.api.Logout(ctx); err != nil {
			s.log.Warn().Err(err).Msg("backend logout failed, clearing local session anyway")
		}
	}
	s.clearTokens(ctx)
	prev := s.logOut("")
	s.emitPrev(domain.EventLogout, prev, "")
	return nil
}

// Expire forces the session to logged-out. It is the authenticated client's
// auth-failure hook.
func (s *AuthState) Expire(ctx context.Context) {
	s.clearTokens(ctx)
	prev := s.logOut(msgSessionExpired)
	s.emitPrev(domain.EventSessionExpired, prev, "")
}

// Wait blocks until the first session check has settled or ctx is done.
func (s *AuthState) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusPending {
		s.mu.Unlock()
		return nil
	}
	settled := s.settled
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-settled:
		return nil
	}
}

func (s *AuthState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Status: s.status, Identity: s.identity, Error: s.errMsg, CheckedAt: s.checkedAt}
}

func (s *AuthState) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *AuthState) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Err returns the current user-facing error message, if any.
func (s *AuthState) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *AuthState) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *AuthState) IsAdmin() bool   { return s.Identity().IsAdmin() }
func (s *AuthState) IsManager() bool { return s.Identity().IsManager() }

func (s *AuthState) SessionID() string { return s.sessionID }

func (s *AuthState) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// authenticate installs identity and reports whether the session was already
// authenticated.
func (s *AuthState) authenticate(identity *domain.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticateLocked(identity)
}

// authenticateAt installs identity only if no transition happened since gen.
func (s *AuthState) authenticateAt(gen uint64, identity *domain.Identity) (was, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false, false
	}
	return s.authenticateLocked(identity), true
}

func (s *AuthState) authenticateLocked(identity *domain.Identity) bool {
	was := s.status == StatusAuthenticated
	s.gen++
	s.identity = identity
	s.status = StatusAuthenticated
	s.errMsg = ""
	s.checkedAt = s.now()
	s.settleLocked()
	return was
}

// logOut clears the identity and returns the one it replaced.
func (s *AuthState) logOut(errMsg string) *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logOutLocked(errMsg)
}

// logOutAt logs out only if no transition happened since gen.
func (s *AuthState) logOutAt(gen uint64, errMsg string) (*domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil, false
	}
	return s.logOutLocked(errMsg), true
}

func (s *AuthState) logOutLocked(errMsg string) *domain.Identity {
	prev := s.identity
	s.gen++
	s.identity = nil
	s.status = StatusUnauthenticated
	s.errMsg = errMsg
	s.checkedAt = s.now()
	s.settleLocked()
	return prev
}

func (s *AuthState) fail(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

func (s *AuthState) settleLocked() {
	select {
	case <-s.settled:
	default:
		close(s.settled)
	}
}

func (s *AuthState) clearTokens(ctx context.Context) {
	if err := s.store.ClearTokens(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear tokens")
	}
}

func (s *AuthState) emitPrev(typ domain.AuthEventType, prev *domain.Identity, reason string) {
	if prev == nil {
		s.emit(typ, "", "", reason)
		return
	}
	s.emit(typ, prev.ID, prev.Email, reason)
}

func (s *AuthState) emit(typ domain.AuthEventType, userID domain.ID, email, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuthEvent{
		Type:       typ,
		SessionID:  s.sessionID,
		UserID:     userID,
		Email:      email,
		Reason:     reason,
		OccurredAt: s.now().UTC(),
	})
}

type userMessager interface {
	UserMessage() string
}

func describe(err error, fallback string) string {
	var m userMessager
	if errors.As(err, &m) && m.UserMessage() != "" {
		return m.UserMessage()
	}
	return fallback
}

// identityFromResponse builds an identity from a backend payload, filling
// anything the payload omits from the decoded token claims.
func identityFromResponse(resp *ports.AuthResponse, claims domain.TokenClaims) *domain.Identity {
	id := &domain.Identity{
		ID:                 firstID(resp.UserID, claims.UserID),
		Email:              firstString(resp.Email, claims.Email),
		Name:               firstString(resp.Name, claims.Name),
		Picture:            firstString(resp.Picture, claims.Picture),
		SystemRole:         normalizeRole(firstString(string(resp.SystemRole), string(claims.SystemRole))),
		Roles:              resp.Roles,
		Permissions:        resp.Permissions,
		ProjectMemberships: resp.Projects,
	}
	if len(id.Roles) == 0 {
		id.Roles = claims.Roles
	}
	if len(id.Permissions) == 0 {
		id.Permissions = claims.Permissions
	}
	if len(id.ProjectMemberships) == 0 {
		id.ProjectMemberships = claims.Projects
	}
	id.ProjectMemberships = domain.DedupeMemberships(id.ProjectMemberships)
	return id
}

func identityFromOAuth(oc ports.OAuthClaims, claims domain.TokenClaims) *domain.Identity {
	return identityFromResponse(&ports.AuthResponse{
		UserID:  oc.UserID,
		Email:   oc.Email,
		Name:    oc.Name,
		Picture: oc.Picture,
	}, claims)
}

func normalizeRole(role string) domain.SystemRole {
	return domain.SystemRole(strings.ToUpper(strings.TrimSpace(role)))
}

func firstID(ids ...domain.ID) domain.ID {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return ""
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
