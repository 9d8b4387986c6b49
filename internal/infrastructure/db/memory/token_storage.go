package memory

import (
	"context"
	"sync"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
)

// TokenStorage keeps token pairs in process memory. Pairs are lost on
// restart, which forces a fresh login.
type TokenStorage struct {
	mu    sync.RWMutex
	pairs map[string]map[string]string
}

var _ ports.TokenStorage = (*TokenStorage)(nil)

func NewTokenStorage() *TokenStorage {
	return &TokenStorage{pairs: make(map[string]map[string]string)}
}

func (s *TokenStorage) Load(_ context.Context, sessionID string) (domain.TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kv := s.pairs[sessionID]
	return domain.TokenPair{
		AccessToken:  kv[ports.AccessTokenKey],
		RefreshToken: kv[ports.RefreshTokenKey],
	}, nil
}

func (s *TokenStorage) Save(_ context.Context, sessionID string, pair domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[sessionID] = map[string]string{
		ports.AccessTokenKey:  pair.AccessToken,
		ports.RefreshTokenKey: pair.RefreshToken,
	}
	return nil
}

func (s *TokenStorage) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pairs, sessionID)
	return nil
}

// Len returns the number of sessions holding tokens.
func (s *TokenStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pairs)
}
