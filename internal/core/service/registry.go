package service

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/activity-tracker/tracker-web/internal/core/ports"
	"github.com/activity-tracker/tracker-web/internal/pkg/metrics"
)

const (
	defaultRegistrySize = 10000
	defaultSessionTTL   = 24 * time.Hour
)

// Session is everything bound to one browser session cookie.
type Session struct {
	ID      string
	State   *AuthState
	Tracker ports.TrackerService
}

// SessionFactory builds the bundle for a new session id.
type SessionFactory func(sessionID string) *Session

// SessionRegistry maps session ids to their bundles. Entries expire after
// ttl without a lookup; the least recently used entry is dropped when the
// registry is full. Tokens live in TokenStorage, so a dropped bundle is
// rebuilt and revalidated on the next request.
type SessionRegistry struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, *Session]
	factory SessionFactory
	log     zerolog.Logger
}

// NewSessionRegistry creates a registry. onEvict, when non-nil, is called
// with the id of every dropped session; it runs under the registry's cache
// lock and must not call back into the registry.
func NewSessionRegistry(size int, ttl time.Duration, factory SessionFactory, onEvict func(sessionID string), log zerolog.Logger) *SessionRegistry {
	if size <= 0 {
		size = defaultRegistrySize
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	r := &SessionRegistry{
		factory: factory,
		log:     log.With().Str("component", "session_registry").Logger(),
	}
	r.cache = expirable.NewLRU[string, *Session](size, func(id string, _ *Session) {
		metrics.SessionsActive.Dec()
		if onEvict != nil {
			onEvict(id)
		}
	}, ttl)
	return r
}

// Get returns the session for id, creating it on first use. Every lookup
// renews the entry's expiry.
func (r *SessionRegistry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.cache.Get(id); ok {
		r.cache.Add(id, sess)
		return sess
	}

	// An expired entry not yet swept is overwritten in place without an
	// eviction callback.
	stale := r.cache.Contains(id)
	sess := r.factory(id)
	r.cache.Add(id, sess)
	if !stale {
		metrics.SessionsActive.Inc()
	}
	r.log.Debug().Str("session_id", id).Msg("session created")
	return sess
}

// Lookup returns the session for id without creating one.
func (r *SessionRegistry) Lookup(id string) (*Session, bool) {
	return r.cache.Peek(id)
}

// Remove drops the session for id.
func (r *SessionRegistry) Remove(id string) {
	r.cache.Remove(id)
}

func (r *SessionRegistry) Len() int {
	return r.cache.Len()
}
