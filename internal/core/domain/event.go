package domain

import "time"

// AuthEventType names a session lifecycle transition.
type AuthEventType string

const (
	EventLoginSucceeded  AuthEventType = "login_succeeded"
	EventLoginFailed     AuthEventType = "login_failed"
	EventOAuthCallback   AuthEventType = "oauth_callback"
	EventSessionRestored AuthEventType = "session_restored"
	EventSessionRejected AuthEventType = "session_rejected"
	EventTokenRefreshed  AuthEventType = "token_refreshed"
	EventRefreshFailed   AuthEventType = "refresh_failed"
	EventSessionExpired  AuthEventType = "session_expired"
	EventLogout          AuthEventType = "logout"
)

// AuthEvent is one entry of the auth audit trail.
type AuthEvent struct {
	Type       AuthEventType
	SessionID  string
	UserID     ID
	Email      string
	Reason     string // optional
	OccurredAt time.Time
}
