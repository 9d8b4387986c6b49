package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/infrastructure/apiclient"
)

// statusFor maps a backend failure to the status of the page that reports
// it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrServer), errors.Is(err, domain.ErrUnexpectedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func unauthorizedURL(reason string) string {
	return "/unauthorized?reason=" + url.QueryEscape(reason)
}

// authRedirect returns where to send the browser when a backend call made
// on its behalf failed authentication or authorization.
func authRedirect(c echo.Context, err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return loginURL(c), true
	case errors.Is(err, domain.ErrAuthorization):
		return unauthorizedURL(apiclient.UserMessage(err)), true
	}
	return "", false
}
