package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
)

const defaultSessionTTL = 24 * time.Hour

// TokenStorage persists token pairs in Redis so every replica of the web
// server sees the same session.
// Key format: session:<session_id>:<accessToken|refreshToken>
type TokenStorage struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.TokenStorage = (*TokenStorage)(nil)

// NewTokenStorage wraps client. Keys expire ttl after the last write.
func NewTokenStorage(client *redis.Client, ttl time.Duration) *TokenStorage {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &TokenStorage{client: client, ttl: ttl}
}

// Load reads both keys in one round trip.
func (s *TokenStorage) Load(ctx context.Context, sessionID string) (domain.TokenPair, error) {
	vals, err := s.client.MGet(ctx, s.key(sessionID, ports.AccessTokenKey), s.key(sessionID, ports.RefreshTokenKey)).Result()
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("load tokens: %w", err)
	}
	access, _ := vals[0].(string)
	refresh, _ := vals[1].(string)
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Save writes both keys inside MULTI/EXEC.
func (s *TokenStorage) Save(ctx context.Context, sessionID string, pair domain.TokenPair) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sessionID, ports.AccessTokenKey), pair.AccessToken, s.ttl)
		pipe.Set(ctx, s.key(sessionID, ports.RefreshTokenKey), pair.RefreshToken, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

// Delete removes both keys in a single DEL.
func (s *TokenStorage) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID, ports.AccessTokenKey), s.key(sessionID, ports.RefreshTokenKey)).Err(); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}

func (s *TokenStorage) key(sessionID, name string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, name)
}
