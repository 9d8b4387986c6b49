package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/activity-tracker/tracker-web/internal/api"
	"github.com/activity-tracker/tracker-web/internal/api/handler"
	"github.com/activity-tracker/tracker-web/internal/core/ports"
	"github.com/activity-tracker/tracker-web/internal/core/service"
	"github.com/activity-tracker/tracker-web/internal/core/session"
	"github.com/activity-tracker/tracker-web/internal/infrastructure/apiclient"
	"github.com/activity-tracker/tracker-web/internal/infrastructure/db/memory"
	mongostore "github.com/activity-tracker/tracker-web/internal/infrastructure/db/mongo"
	redisstore "github.com/activity-tracker/tracker-web/internal/infrastructure/db/redis"
	"github.com/activity-tracker/tracker-web/internal/infrastructure/queue"
	"github.com/activity-tracker/tracker-web/internal/pkg/config"
	"github.com/activity-tracker/tracker-web/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// main wires the stores, the per-session client stack and the router, then
// keeps the server lifecycle small.
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "tracker-web",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	checks := map[string]handler.Check{}

	// --- Token storage ---
	var (
		storage ports.TokenStorage
		onEvict func(sessionID string)
	)
	if cfg.UsesRedis() {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		storage = redisstore.NewTokenStorage(rdb, cfg.Session.TTL)
		checks["redis"] = handler.RedisCheck(rdb)
	} else {
		mem := memory.NewTokenStorage()
		storage = mem
		onEvict = func(sessionID string) { _ = mem.Delete(context.Background(), sessionID) }
	}

	// --- Audit trail ---
	var repo ports.AuthEventRepository
	if cfg.AuditPersisted() {
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()
		events := mongostore.NewAuthEventRepository(db, cfg.Audit.Retention)
		if err := events.EnsureIndexes(ctx); err != nil {
			return err
		}
		repo = events
		checks["mongodb"] = handler.MongoCheck(db)
	} else {
		log.Info().Msg("MONGO_URI not set, auth events are only logged")
	}

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, service.NewAuthEventService(repo, log), logger.Component("audit"))
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	// --- Per-session stack ---
	apiCfg := apiclient.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		HTTPClient: apiclient.NewHTTPClient(cfg.API.Timeout),
	}
	factory := func(id string) *service.Session {
		store := session.NewStore(storage, id, log)
		client := apiclient.New(apiCfg, store, log)
		state := service.NewAuthState(id, store, apiclient.NewAuthAPI(client), client, dispatcher, log,
			service.WithRecheckInterval(cfg.Session.RecheckInterval))
		client.OnAuthFailure(state.Expire)
		return &service.Session{ID: id, State: state, Tracker: apiclient.NewTrackerService(client)}
	}
	registry := service.NewSessionRegistry(cfg.Session.CacheSize, cfg.Session.TTL, factory, onEvict, log)

	e, err := api.NewRouter(api.Deps{
		Config:   cfg,
		Registry: registry,
		Checks:   checks,
		Log:      log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("api", cfg.API.BaseURL).Str("token_store", cfg.Session.TokenStore).Msg("starting tracker-web")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
