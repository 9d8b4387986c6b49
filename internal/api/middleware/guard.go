package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/activity-tracker/tracker-web/internal/api/view"
	"github.com/activity-tracker/tracker-web/internal/core/access"
	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/service"
	"github.com/activity-tracker/tracker-web/internal/pkg/metrics"
)

// Guard gates routes on the session's authentication state and an
// AuthorizationRequirement.
type Guard struct {
	pendingWait time.Duration
}

// NewGuard returns a Guard that waits up to pendingWait for an in-flight
// session check before showing the loading page.
func NewGuard(pendingWait time.Duration) *Guard {
	return &Guard{pendingWait: pendingWait}
}

type guardOptions struct {
	projectParam string
}

// GuardOption adjusts a single guarded route.
type GuardOption func(*guardOptions)

// ProjectFromParam takes the requirement's project id from the named route
// parameter.
func ProjectFromParam(name string) GuardOption {
	return func(o *guardOptions) { o.projectParam = name }
}

// Authenticated only requires a logged-in session.
func (g *Guard) Authenticated() echo.MiddlewareFunc {
	return g.Require(domain.AuthorizationRequirement{})
}

// Require allows the request through only when the session is
// authenticated and req is satisfied:
//   - still pending after the wait: the loading page is rendered in place
//   - unauthenticated: 302 to /login with the original URI as redirect
//   - denied: 302 to /unauthorized with the denial reason
func (g *Guard) Require(req domain.AuthorizationRequirement, opts ...GuardOption) echo.MiddlewareFunc {
	var o guardOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			sess := SessionFrom(c)
			if sess == nil {
				return redirectToLogin(c, route)
			}

			snap := g.settle(c.Request().Context(), sess.State)
			switch snap.Status {
			case service.StatusPending:
				metrics.GuardDecisionsTotal.WithLabelValues(route, "pending").Inc()
				return c.Render(http.StatusOK, view.LoadingPage, view.NewPage(snap, "Loading", view.Loading{
					Target: c.Request().RequestURI,
				}))
			case service.StatusUnauthenticated:
				return redirectToLogin(c, route)
			}

			effective := req
			if o.projectParam != "" {
				effective.ProjectID = domain.ID(c.Param(o.projectParam))
			}
			decision := access.Evaluate(snap.Identity, effective)
			if !decision.Allowed {
				metrics.GuardDecisionsTotal.WithLabelValues(route, "denied").Inc()
				return c.Redirect(http.StatusFound, "/unauthorized?reason="+url.QueryEscape(decision.Reason))
			}

			metrics.GuardDecisionsTotal.WithLabelValues(route, "allowed").Inc()
			return next(c)
		}
	}
}

func (g *Guard) settle(ctx context.Context, state *service.AuthState) service.Snapshot {
	if g.pendingWait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, g.pendingWait)
		defer cancel()
		_ = state.Wait(waitCtx)
	}
	return state.Snapshot()
}

func redirectToLogin(c echo.Context, route string) error {
	metrics.GuardDecisionsTotal.WithLabelValues(route, "unauthenticated").Inc()
	return c.Redirect(http.StatusFound, "/login?redirect="+url.QueryEscape(c.Request().RequestURI))
}
