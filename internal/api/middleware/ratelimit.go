package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/activity-tracker/tracker-web/internal/pkg/metrics"
)

const (
	limiterCacheSize = 10000
	limiterIdleTTL   = 15 * time.Minute
)

// ErrTooManyAttempts is returned when a client exceeds the login rate.
var ErrTooManyAttempts = echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts. Please wait a minute and try again.")

// LoginRateLimit throttles POST requests per client IP with a token bucket
// refilled at perMinute and holding up to burst attempts. Other methods pass
// through untouched.
func LoginRateLimit(perMinute, burst int) echo.MiddlewareFunc {
	limiters := newLimiterSet(rate.Limit(float64(perMinute)/60), burst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodPost {
				return next(c)
			}
			if !limiters.get(c.RealIP()).Allow() {
				metrics.LoginThrottledTotal.Inc()
				return ErrTooManyAttempts
			}
			return next(c)
		}
	}
}

type limiterSet struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *rate.Limiter]
	limit rate.Limit
	burst int
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		cache: expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterIdleTTL),
		limit: limit,
		burst: burst,
	}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.cache.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(s.limit, s.burst)
	s.cache.Add(key, l)
	return l
}
