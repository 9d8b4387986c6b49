package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/activity-tracker/tracker-web/internal/core/service"
)

const sessionKey = "tracker.session"

// SessionConfig controls the browser session cookie.
type SessionConfig struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// Session resolves the browser's session cookie to its bundle in registry,
// issuing a new cookie when none (or a malformed one) is presented, and
// schedules a background session check when the last one is stale.
func Session(registry *service.SessionRegistry, cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if cookie, err := c.Cookie(cfg.CookieName); err == nil {
				if parsed, err := uuid.Parse(cookie.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cfg.TTL / time.Second),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			sess := registry.Get(id)
			sess.State.EnsureChecked()
			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// SessionFrom returns the bundle attached by Session, or nil.
func SessionFrom(c echo.Context) *service.Session {
	sess, _ := c.Get(sessionKey).(*service.Session)
	return sess
}

// WithSession attaches sess to c; used where the Session middleware is not
// in the chain.
func WithSession(c echo.Context, sess *service.Session) {
	c.Set(sessionKey, sess)
}
