package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/activity-tracker/tracker-web/internal/api/middleware"
	"github.com/activity-tracker/tracker-web/internal/api/view"
	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/service"
	"github.com/activity-tracker/tracker-web/internal/infrastructure/apiclient"
)

// errorResponse is the error envelope of the JSON routes.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders {"error": "<message>"} for JSON routes and the error page
//     otherwise.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		switch {
		case c.Request().Method == http.MethodHead:
			_ = c.NoContent(code)
		case wantsJSON(c):
			_ = c.JSON(code, errorResponse{Error: msg})
		default:
			renderErrorPage(c, code, msg, log)
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, rate limiting).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized, apiclient.MsgSessionExpired
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden, apiclient.MsgForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, apiclient.MsgNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, apiclient.UserMessage(err)
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusServiceUnavailable, apiclient.MsgNetwork
	case errors.Is(err, domain.ErrServer), errors.Is(err, domain.ErrUnexpectedResponse):
		return http.StatusBadGateway, apiclient.UserMessage(err)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if strings.HasPrefix(req.URL.Path, "/api/") || strings.HasPrefix(req.URL.Path, "/health") {
		return true
	}
	accept := req.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}

func renderErrorPage(c echo.Context, code int, msg string, log zerolog.Logger) {
	snap := service.Snapshot{Status: service.StatusUnauthenticated}
	if sess := middleware.SessionFrom(c); sess != nil {
		snap = sess.State.Snapshot()
	}
	page := view.NewPage(snap, http.StatusText(code), view.ErrorData{Message: msg})
	if err := c.Render(code, view.ErrorPage, page); err != nil {
		log.Error().Err(err).Msg("render error page")
		if !c.Response().Committed {
			_ = c.String(code, msg)
		}
	}
}
