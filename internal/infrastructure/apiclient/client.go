// Package apiclient is the single chokepoint for calls to the Activity
// Tracker REST API. It attaches the session's bearer token, performs at most
// one silent refresh per failing request, and normalizes every failure into
// an *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
	"github.com/activity-tracker/tracker-web/internal/pkg/metrics"
)

const (
	DefaultTimeout = 30 * time.Second

	refreshPath  = "/auth/refresh-token"
	maxBodyBytes = 4 << 20
)

// Config holds the settings shared by every session's client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient is shared across sessions so connections are pooled. When
	// nil a client with Timeout is created.
	HTTPClient *http.Client
}

// NewHTTPClient returns the transport shared by all session clients.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

type callOptions struct {
	anonymous bool
	noRefresh bool
}

// Option adjusts a single call.
type Option func(*callOptions)

// Anonymous sends the request without a bearer token and never refreshes.
func Anonymous() Option { return func(o *callOptions) { o.anonymous = true } }

// NoRefresh attaches the bearer token but skips the refresh cycle on 401.
func NoRefresh() Option { return func(o *callOptions) { o.noRefresh = true } }

// Client is bound to one browser session's credentials.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	store   ports.SessionStore
	log     zerolog.Logger

	refreshes singleflight.Group

	mu            sync.RWMutex
	onAuthFailure func(ctx context.Context)
}

// New creates a client for the session behind store.
func New(cfg Config, store ports.SessionStore, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(timeout)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		timeout: timeout,
		store:   store,
		log:     log.With().Str("component", "apiclient").Logger(),
	}
}

// OnAuthFailure registers the hook invoked after tokens are cleared because
// the session could not be recovered.
func (c *Client) OnAuthFailure(fn func(ctx context.Context)) {
	c.mu.Lock()
	c.onAuthFailure = fn
	c.mu.Unlock()
}

// Do performs method on path. body, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded 2xx response. Every returned error is an
// *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...Option) error {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	op := method + " " + path

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: domain.ErrValidation, Message: MsgInvalid, cause: err}
		}
		payload = b
	}

	var token string
	if !o.anonymous {
		token, _ = c.store.AccessToken(ctx)
	}

	status, raw, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return networkError(op, err)
	}

	if status == http.StatusUnauthorized && !o.anonymous && !o.noRefresh && path != refreshPath {
		next, rerr := c.recoverToken(ctx, token)
		if rerr != nil && ctx.Err() != nil {
			// The caller gave up; the shared refresh decides the session's fate.
			return rerr
		}
		if rerr != nil {
			c.log.Info().Err(rerr).Str("op", op).Msg("session could not be refreshed")
			c.expire(ctx)
			return statusError(op, status, raw)
		}

		status, raw, err = c.send(ctx, method, path, payload, next)
		if err != nil {
			return networkError(op, err)
		}
		if status == http.StatusUnauthorized {
			c.log.Info().Str("op", op).Msg("request rejected after refresh")
			c.expire(ctx)
		}
	}

	return decode(op, status, raw, out)
}

// Refresh exchanges the stored refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context) error {
	used, _ := c.store.AccessToken(ctx)
	_, err := c.recoverToken(ctx, used)
	return err
}

var _ ports.TokenRefresher = (*Client)(nil)

// recoverToken returns the access token to resubmit with after used was
// rejected. Concurrent callers share one in-flight refresh, which runs
// detached from any single caller's cancellation. If the pair was already
// rotated since used was read, the stored token is returned without a
// backend call.
func (c *Client) recoverToken(ctx context.Context, used string) (string, error) {
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		if current, ok := c.store.AccessToken(rctx); ok && current != used {
			return current, nil
		}
		refresh, ok := c.store.RefreshToken(rctx)
		if !ok {
			metrics.TokenRefreshTotal.WithLabelValues("missing").Inc()
			return "", domain.ErrNoRefreshToken
		}
		if err := c.refresh(rctx, refresh); err != nil {
			return "", err
		}
		next, ok := c.store.AccessToken(rctx)
		if !ok {
			return "", domain.ErrMalformedRefresh
		}
		return next, nil
	})

	select {
	case <-ctx.Done():
		return "", networkError("POST "+refreshPath, ctx.Err())
	case res := <-ch:
		if res.Shared {
			metrics.TokenRefreshTotal.WithLabelValues("shared").Inc()
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) refresh(ctx context.Context, refreshToken string) error {
	op := "POST " + refreshPath
	payload, _ := json.Marshal(map[string]string{"refreshToken": refreshToken})

	status, raw, err := c.send(ctx, http.MethodPost, refreshPath, payload, "")
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return networkError(op, err)
	}
	var resp ports.RefreshResponse
	if err := decode(op, status, raw, &resp); err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return unexpectedError(op, status, domain.ErrMalformedRefresh)
	}

	if err := c.store.SetTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("store refreshed tokens: %w", err)
	}
	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	c.log.Debug().Int64("expires_in", resp.ExpiresIn).Msg("access token refreshed")
	return nil
}

func (c *Client) expire(ctx context.Context) {
	if err := c.store.ClearTokens(ctx); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear tokens")
	}
	c.mu.RLock()
	fn := c.onAuthFailure
	c.mu.RUnlock()
	if fn != nil {
		fn(ctx)
	}
}

// send performs one round trip and returns the status and body. err is only
// set when no response was received.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(method, "network").Observe(time.Since(start).Seconds())
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.BackendRequestDuration.WithLabelValues(method, statusClass(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

func decode(op string, status int, raw []byte, out any) error {
	if status < 200 || status > 299 {
		return statusError(op, status, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return unexpectedError(op, status, errors.Join(domain.ErrUnexpectedResponse, err))
	}
	return nil
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
