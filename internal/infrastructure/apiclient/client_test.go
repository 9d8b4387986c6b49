package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/session"
	"github.com/activity-tracker/tracker-web/internal/infrastructure/db/memory"
)

// fakeBackend accepts exactly one access token and rotates it on refresh.
type fakeBackend struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	nextAccess   string
	nextRefresh  string

	refreshCalls  atomic.Int32
	protectedHits atomic.Int32
	refreshDelay  time.Duration
	refreshStatus int
	refreshBody   string
	alwaysReject  bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshDelay > 0 {
			time.Sleep(b.refreshDelay)
		}
		if b.refreshStatus != 0 {
			w.WriteHeader(b.refreshStatus)
			return
		}
		if b.refreshBody != "" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(b.refreshBody))
			return
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		b.mu.Lock()
		defer b.mu.Unlock()
		if body.RefreshToken != b.validRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b.validAccess, b.validRefresh = b.nextAccess, b.nextRefresh
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  b.nextAccess,
			"refreshToken": b.nextRefresh,
			"expiresIn":    900,
		})
	})
	mux.HandleFunc("/activity-logs/summary", func(w http.ResponseWriter, r *http.Request) {
		b.protectedHits.Add(1)
		b.mu.Lock()
		ok := r.Header.Get("Authorization") == "Bearer "+b.validAccess
		b.mu.Unlock()
		if !ok || b.alwaysReject {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hoursThisWeek": 12.5, "entriesThisWeek": 4})
	})
	return mux
}

func newTestClient(t *testing.T, baseURL string, access, refresh string) (*Client, *session.Store, *atomic.Int32) {
	t.Helper()
	store := session.NewStore(memory.NewTokenStorage(), "sid-1", zerolog.Nop())
	if access != "" || refresh != "" {
		if err := store.SetTokens(context.Background(), access, refresh); err != nil {
			t.Fatalf("seed tokens: %v", err)
		}
	}
	client := New(Config{BaseURL: baseURL, Timeout: 2 * time.Second}, store, zerolog.Nop())
	var failures atomic.Int32
	client.OnAuthFailure(func(context.Context) { failures.Add(1) })
	return client, store, &failures
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, _, _ := newTestClient(t, srv.URL, "A1", "R1")
	if err := client.Do(context.Background(), http.MethodGet, "/users", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Bearer A1" {
		t.Fatalf("expected bearer header, got %q", got)
	}
}

func TestClient_AnonymousSkipsBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, store, failures := newTestClient(t, srv.URL, "A1", "R1")
	err := client.Do(context.Background(), http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com"}, nil, Anonymous())
	if got != "" {
		t.Fatalf("expected no authorization header, got %q", got)
	}
	apiErr, ok := AsError(err)
	if !ok || !apiErr.IsAuthError() {
		t.Fatalf("expected auth error, got %v", err)
	}
	if failures.Load() != 0 || !store.HasToken(context.Background()) {
		t.Fatalf("anonymous 401 must not clear the session")
	}
}

func TestClient_RefreshesAndRetriesTransparently(t *testing.T) {
	backend := &fakeBackend{validAccess: "A2", validRefresh: "R1", nextAccess: "A2", nextRefresh: "R2"}
	// The stored A1 is stale; refresh with R1 yields A2.
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client, store, failures := newTestClient(t, srv.URL, "A1", "R1")
	svc := NewTrackerService(client)

	summary, err := svc.DashboardSummary(context.Background())
	if err != nil {
		t.Fatalf("expected transparent retry, got %v", err)
	}
	if summary.HoursThisWeek != 12.5 {
		t.Fatalf("unexpected payload: %+v", summary)
	}
	if n := backend.refreshCalls.Load(); n != 1 {
		t.Fatalf("expected 1 refresh call, got %d", n)
	}
	if n := backend.protectedHits.Load(); n != 2 {
		t.Fatalf("expected original plus one retry, got %d", n)
	}
	if access, _ := store.AccessToken(context.Background()); access != "A2" {
		t.Fatalf("expected rotated access token, got %q", access)
	}
	if refresh, _ := store.RefreshToken(context.Background()); refresh != "R2" {
		t.Fatalf("expected rotated refresh token, got %q", refresh)
	}
	if failures.Load() != 0 {
		t.Fatalf("auth failure hook must not fire on successful refresh")
	}
}

func TestClient_SecondUnauthorizedDoesNotRefreshAgain(t *testing.T) {
	backend := &fakeBackend{validAccess: "A2", validRefresh: "R1", nextAccess: "A2", nextRefresh: "R2", alwaysReject: true}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client, store, failures := newTestClient(t, srv.URL, "A1", "R1")

	err := client.Do(context.Background(), http.MethodGet, "/activity-logs/summary", nil, nil)
	apiErr, ok := AsError(err)
	if !ok || !apiErr.IsAuthError() {
		t.Fatalf("expected auth error, got %v", err)
	}
	if apiErr.Message != MsgSessionExpired {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	if n := backend.refreshCalls.Load(); n != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", n)
	}
	if n := backend.protectedHits.Load(); n != 2 {
		t.Fatalf("expected exactly one retry, got %d hits", n)
	}
	if store.HasToken(context.Background()) {
		t.Fatalf("expected tokens cleared")
	}
	if failures.Load() != 1 {
		t.Fatalf("expected auth failure hook once, got %d", failures.Load())
	}
}

func TestClient_NoRefreshTokenClearsSession(t *testing.T) {
	backend := &fakeBackend{validAccess: "other"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client, store, failures := newTestClient(t, srv.URL, "A1", "")

	err := client.Do(context.Background(), http.MethodGet, "/activity-logs/summary", nil, nil)
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if backend.refreshCalls.Load() != 0 {
		t.Fatalf("refresh must not be called without a refresh token")
	}
	if store.HasToken(context.Background()) || failures.Load() != 1 {
		t.Fatalf("expected session cleared and hook fired")
	}
}

func TestClient_RefreshFailureClearsSession(t *testing.T) {
	cases := map[string]*fakeBackend{
		"rejected":  {validAccess: "other", validRefresh: "R1", refreshStatus: http.StatusUnauthorized},
		"malformed": {validAccess: "other", validRefresh: "R1", refreshBody: `{"accessToken":"only-access"}`},
		"garbage":   {validAccess: "other", validRefresh: "R1", refreshBody: `not json`},
	}
	for name, backend := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(backend.handler())
			defer srv.Close()

			client, store, failures := newTestClient(t, srv.URL, "A1", "R1")
			err := client.Do(context.Background(), http.MethodGet, "/activity-logs/summary", nil, nil)
			if err == nil {
				t.Fatalf("expected error")
			}
			if backend.protectedHits.Load() != 1 {
				t.Fatalf("original request must not be retried after refresh failure")
			}
			if store.HasToken(context.Background()) || failures.Load() != 1 {
				t.Fatalf("expected session cleared and hook fired")
			}
		})
	}
}

func TestClient_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	backend := &fakeBackend{
		validAccess:  "A2",
		validRefresh: "R1",
		nextAccess:   "A2",
		nextRefresh:  "R2",
		refreshDelay: 50 * time.Millisecond,
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client, _, failures := newTestClient(t, srv.URL, "A1", "R1")

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.Do(context.Background(), http.MethodGet, "/activity-logs/summary", nil, nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := backend.refreshCalls.Load(); n != 1 {
		t.Fatalf("expected a single coalesced refresh, got %d", n)
	}
	if failures.Load() != 0 {
		t.Fatalf("auth failure hook must not fire")
	}
}

func TestClient_CancelledCallerDoesNotExpireSession(t *testing.T) {
	backend := &fakeBackend{
		validAccess:  "A2",
		validRefresh: "R1",
		nextAccess:   "A2",
		nextRefresh:  "R2",
		refreshDelay: 200 * time.Millisecond,
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client, store, failures := newTestClient(t, srv.URL, "A1", "R1")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	err := client.Do(ctx, http.MethodGet, "/activity-logs/summary", nil, nil)

	apiErr, ok := AsError(err)
	if !ok || !errors.Is(err, domain.ErrNetwork) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected network error wrapping cancellation, got %v", err)
	}
	if apiErr.IsAuthError() {
		t.Fatalf("cancellation must not read as an auth failure")
	}
	if failures.Load() != 0 {
		t.Fatalf("auth failure hook must not fire for a cancelled caller")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if tok, _ := store.AccessToken(context.Background()); tok == "A2" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("detached refresh never stored the rotated token")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if failures.Load() != 0 {
		t.Fatalf("session must stay alive after the refresh succeeds")
	}
	if n := backend.refreshCalls.Load(); n != 1 {
		t.Fatalf("expected one refresh, got %d", n)
	}
}

func TestClient_ErrorBuckets(t *testing.T) {
	cases := []struct {
		status  int
		body    string
		kind    error
		message string
		retry   bool
	}{
		{http.StatusForbidden, `{}`, domain.ErrAuthorization, MsgForbidden, false},
		{http.StatusNotFound, ``, domain.ErrNotFound, MsgNotFound, false},
		{http.StatusUnprocessableEntity, `{"errors":{"email":["is invalid"],"hours":["must be positive","too large"]}}`,
			domain.ErrValidation, "email: is invalid; hours: must be positive, too large", false},
		{http.StatusUnprocessableEntity, `{"errors":[{"field":"date","message":"is required"}]}`,
			domain.ErrValidation, "date: is required", false},
		{http.StatusUnprocessableEntity, `{"message":"bad input"}`, domain.ErrValidation, "bad input", false},
		{http.StatusBadGateway, `oops`, domain.ErrServer, MsgServer, true},
		{http.StatusConflict, `{"message":"already submitted"}`, domain.ErrUnexpectedResponse, "already submitted", false},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))

		client, _, _ := newTestClient(t, srv.URL, "A1", "R1")
		err := client.Do(context.Background(), http.MethodGet, "/users", nil, nil)
		srv.Close()

		apiErr, ok := AsError(err)
		if !ok {
			t.Fatalf("status %d: expected *Error, got %T", tc.status, err)
		}
		if !errors.Is(err, tc.kind) {
			t.Fatalf("status %d: expected kind %v, got %v", tc.status, tc.kind, apiErr.Kind)
		}
		if apiErr.Message != tc.message {
			t.Fatalf("status %d: message %q, want %q", tc.status, apiErr.Message, tc.message)
		}
		if apiErr.ShouldRetry() != tc.retry {
			t.Fatalf("status %d: ShouldRetry=%v, want %v", tc.status, apiErr.ShouldRetry(), tc.retry)
		}
		if apiErr.IsAuthError() {
			t.Fatalf("status %d: must not be an auth error", tc.status)
		}
	}
}

func TestClient_TimeoutIsRetryableNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	store := session.NewStore(memory.NewTokenStorage(), "sid-1", zerolog.Nop())
	client := New(Config{BaseURL: srv.URL, HTTPClient: NewHTTPClient(50 * time.Millisecond)}, store, zerolog.Nop())

	err := client.Do(context.Background(), http.MethodGet, "/users", nil, nil)
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(err, domain.ErrNetwork) || !apiErr.ShouldRetry() || apiErr.IsAuthError() {
		t.Fatalf("expected retryable network error, got %+v", apiErr)
	}
	if apiErr.Message != MsgNetwork {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestClient_UnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, _, _ := newTestClient(t, url, "A1", "R1")
	err := client.Do(context.Background(), http.MethodGet, "/users", nil, nil)
	if !IsRetryable(err) || UserMessage(err) != MsgNetwork {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}

func TestAuthAPI_LoginToleratesLocalJoinedAt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":5,"email":"a@b.com","token":"A1","refreshToken":"R1",
			"projects":[{"project":{"id":3,"name":"Apollo"},"role":"PROJECT_MEMBER","joinedAt":"2024-01-15T10:30:00"},
			{"project":{"id":4,"name":"Gemini"},"role":"PROJECT_VIEWER","joinedAt":""}]}`))
	}))
	defer srv.Close()

	client, _, _ := newTestClient(t, srv.URL, "", "")
	resp, err := NewAuthAPI(client).Login(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(resp.Projects) != 2 || resp.Projects[0].Project.ID != "3" {
		t.Fatalf("unexpected projects: %+v", resp.Projects)
	}
	if resp.Projects[0].JoinedAt.Hour() != 10 || !resp.Projects[1].JoinedAt.IsZero() {
		t.Fatalf("unexpected joinedAt: %v, %v", resp.Projects[0].JoinedAt, resp.Projects[1].JoinedAt)
	}
}
