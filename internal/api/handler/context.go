package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/activity-tracker/tracker-web/internal/api/middleware"
	"github.com/activity-tracker/tracker-web/internal/core/service"
)

const defaultLanding = "/dashboard"

// currentSession returns the bundle attached by the Session middleware. Its
// absence means the route was mounted outside the session group.
func currentSession(c echo.Context) (*service.Session, error) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session middleware not installed")
	}
	return sess, nil
}

// safeRedirect keeps post-login targets on this host: only absolute paths
// without a scheme, host or protocol-relative prefix are accepted.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return defaultLanding
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return defaultLanding
	}
	if u.Path == "/login" || strings.HasPrefix(u.Path, "/auth/") {
		return defaultLanding
	}
	return u.RequestURI()
}

func loginURL(c echo.Context) string {
	return "/login?redirect=" + url.QueryEscape(c.Request().RequestURI)
}
