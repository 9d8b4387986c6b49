package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/activity-tracker/tracker-web/internal/api/view"
	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
	"github.com/activity-tracker/tracker-web/internal/core/service"
	"github.com/activity-tracker/tracker-web/internal/infrastructure/apiclient"
)

const msgOAuthFailed = "Sign-in with Google failed. Please try again."

// AuthHandler serves the login form, the OAuth callback and logout.
type AuthHandler struct {
	oauthURL string
	log      zerolog.Logger
}

func NewAuthHandler(oauthURL string, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{oauthURL: oauthURL, log: log.With().Str("component", "auth_handler").Logger()}
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,max=128"`
	Admin    bool   `form:"admin"`
	Redirect string `form:"redirect"`
}

// LoginPage handles GET /login. An already authenticated session goes
// straight to the redirect target.
//
// @Summary      Login form
// @Tags         auth
// @Produce      html
// @Param        redirect  query  string  false  "Local path to continue to after login"
// @Param        error     query  string  false  "Error flag set by the OAuth callback"
// @Param        admin     query  bool    false  "Use the admin login endpoint"
// @Success      200
// @Success      302
// @Router       /login [get]
func (h *AuthHandler) LoginPage(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	redirect := safeRedirect(c.QueryParam("redirect"))
	if sess.State.Status() == service.StatusAuthenticated {
		return c.Redirect(http.StatusFound, redirect)
	}

	form := view.LoginForm{
		Redirect: redirect,
		Admin:    c.QueryParam("admin") == "true",
		OAuthURL: h.oauthURL,
		Error:    sess.State.Err(),
	}
	if c.QueryParam("error") == "oauth_failed" {
		form.Error = msgOAuthFailed
	}
	return c.Render(http.StatusOK, view.LoginPage, view.NewPage(sess.State.Snapshot(), "Sign in", form))
}

// Login handles POST /login.
//
// @Summary      Submit credentials
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      html
// @Param        email     formData  string  true   "Email"
// @Param        password  formData  string  true   "Password"
// @Param        admin     formData  bool    false  "Use the admin login endpoint"
// @Param        redirect  formData  string  false  "Local path to continue to"
// @Success      303
// @Failure      401
// @Failure      422
// @Failure      429
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	var req loginForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	form := view.LoginForm{
		Email:    req.Email,
		Redirect: safeRedirect(req.Redirect),
		Admin:    req.Admin,
		OAuthURL: h.oauthURL,
	}
	if err := c.Validate(&req); err != nil {
		form.Error = err.Error()
		return c.Render(http.StatusUnprocessableEntity, view.LoginPage, view.NewPage(sess.State.Snapshot(), "Sign in", form))
	}

	if _, err := sess.State.LoginWithCredentials(c.Request().Context(), req.Email, req.Password, req.Admin); err != nil {
		form.Error = sess.State.Err()
		status := http.StatusUnauthorized
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			status = statusFor(err)
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("login failed")
		}
		page := view.NewPage(sess.State.Snapshot(), "Sign in", form)
		page.Retry = apiclient.IsRetryable(err)
		return c.Render(status, view.LoginPage, page)
	}

	return c.Redirect(http.StatusSeeOther, form.Redirect)
}

// OAuthCallback handles GET /auth/callback, the provider's redirect back to
// this server.
//
// @Summary      OAuth callback
// @Tags         auth
// @Param        token         query  string  true   "Access token"
// @Param        refreshToken  query  string  true   "Refresh token"
// @Param        userId        query  string  false  "User id"
// @Param        email         query  string  false  "Email"
// @Param        name          query  string  false  "Display name"
// @Param        picture       query  string  false  "Avatar URL"
// @Success      302
// @Router       /auth/callback [get]
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	claims := ports.OAuthClaims{
		UserID:  domain.ID(c.QueryParam("userId")),
		Email:   c.QueryParam("email"),
		Name:    c.QueryParam("name"),
		Picture: c.QueryParam("picture"),
	}
	_, err = sess.State.CompleteOAuthCallback(c.Request().Context(), c.QueryParam("token"), c.QueryParam("refreshToken"), claims)
	if err != nil {
		h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("oauth callback rejected")
		return c.Redirect(http.StatusFound, "/login?error=oauth_failed")
	}
	return c.Redirect(http.StatusFound, safeRedirect(c.QueryParam("redirect")))
}

// Logout handles POST /logout.
//
// @Summary      Log out
// @Tags         auth
// @Success      303
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := sess.State.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}
