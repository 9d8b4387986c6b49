package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/service"
)

// SessionHandler exposes the session's auth state as JSON for scripts on
// the rendered pages.
type SessionHandler struct {
	wait time.Duration
}

// NewSessionHandler returns a handler that, when asked to, waits up to wait
// for a pending session check.
func NewSessionHandler(wait time.Duration) *SessionHandler {
	return &SessionHandler{wait: wait}
}

type sessionResponse struct {
	Status        service.Status   `json:"status"`
	Authenticated bool             `json:"authenticated"`
	IsAdmin       bool             `json:"isAdmin"`
	IsManager     bool             `json:"isManager"`
	User          *domain.Identity `json:"user,omitempty"`
	Error         string           `json:"error,omitempty"`
	CheckedAt     *time.Time       `json:"checkedAt,omitempty"`
}

// Get handles GET /api/session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Param        wait  query     bool  false  "Wait for a pending session check"
// @Success      200   {object}  sessionResponse
// @Router       /api/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	if c.QueryParam("wait") == "true" && h.wait > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.wait)
		_ = sess.State.Wait(ctx)
		cancel()
	}

	snap := sess.State.Snapshot()
	resp := sessionResponse{
		Status: snap.Status,
		Error:  snap.Error,
	}
	if snap.Status == service.StatusAuthenticated {
		resp.Authenticated = true
		resp.User = snap.Identity
		resp.IsAdmin = snap.Identity.IsAdmin()
		resp.IsManager = snap.Identity.IsManager()
	}
	if !snap.CheckedAt.IsZero() {
		resp.CheckedAt = &snap.CheckedAt
	}
	return c.JSON(http.StatusOK, resp)
}
