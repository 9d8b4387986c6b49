package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development" validate:"oneof=development production test"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API     APIConfig
	Session SessionConfig
	Login   LoginConfig
	Audit   AuditConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:8081/api" validate:"required,url"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=30s" validate:"gt=0"`
	// OAuthLoginURL is where the "Sign in with Google" link points. Empty
	// hides the link.
	OAuthLoginURL string `env:"OAUTH_LOGIN_URL" validate:"omitempty,url"`
}

type SessionConfig struct {
	Cookie           string        `env:"SESSION_COOKIE,           default=tracker_sid" validate:"required"`
	TTL              time.Duration `env:"SESSION_TTL,              default=24h" validate:"gt=0"`
	CacheSize        int           `env:"SESSION_CACHE_SIZE,       default=10000" validate:"gt=0"`
	RecheckInterval  time.Duration `env:"SESSION_RECHECK_INTERVAL, default=5m" validate:"gt=0"`
	GuardPendingWait time.Duration `env:"GUARD_PENDING_WAIT,       default=3s" validate:"gte=0"`
	CookieSecure     bool          `env:"COOKIE_SECURE,            default=false"`
	TokenStore       string        `env:"TOKEN_STORE,              default=memory" validate:"oneof=memory redis"`
}

type LoginConfig struct {
	RatePerMinute int `env:"LOGIN_RATE_PER_MINUTE, default=10" validate:"gt=0"`
	Burst         int `env:"LOGIN_BURST,           default=5" validate:"gt=0"`
}

type AuditConfig struct {
	Workers   int           `env:"AUDIT_WORKERS,   default=4" validate:"gt=0"`
	Retention time.Duration `env:"AUDIT_RETENTION, default=2160h" validate:"gte=0"`
}

// MongoConfig leaves URI empty by default; the audit trail is then only
// logged.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=activity_tracker"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// UsesRedis reports whether token pairs are kept in Redis.
func (c *Config) UsesRedis() bool { return c.Session.TokenStore == TokenStoreRedis }

// AuditPersisted reports whether auth events are written to MongoDB.
func (c *Config) AuditPersisted() bool { return c.Mongo.URI != "" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
