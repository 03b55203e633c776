package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/xxt-hub/xxt-signin/config"
	"github.com/xxt-hub/xxt-signin/internal/application/command"
	"github.com/xxt-hub/xxt-signin/internal/application/query"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/persistence/postgres"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/persistence/redis"
	"github.com/xxt-hub/xxt-signin/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRING
// ══════════════════════════════════════════════════════════════════════════════

// app holds the wired dependencies for one CLI invocation.
type app struct {
	cfg *config.Config
	log *slog.Logger

	db    *postgres.Connection
	cache *redis.Cache

	users      *postgres.UserRepository
	courses    *postgres.CourseRepository
	activities *postgres.ActivityRepository
	client     *chaoxing.Client

	// sessionCache is set only when Redis holds sessions.
	sessionCache command.SessionCache
}

var _ command.SessionCache = (*redis.SessionStore)(nil)

// newApp connects to the stores and builds the platform client.
// Redis is optional; without it sessions live in the users table.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool := postgres.PoolConfig{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	}
	err := retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, pool)
		if err != nil {
			log.Debug("database not reachable yet", "error", err)
			return retry.Retryable(err)
		}
		a.db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Debug("database connection established")

	a.users = postgres.NewUserRepository(a.db)
	a.courses = postgres.NewCourseRepository(a.db)
	a.activities = postgres.NewActivityRepository(a.db)

	var store chaoxing.SessionStore = postgres.NewSessionStore(a.db)
	if cfg.Redis.Enabled {
		cache, err := redis.NewCache(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, using database session store", "error", err)
		} else {
			a.cache = cache
			redisStore := redis.NewSessionStore(cache, cfg.Redis.SessionTTL, log)
			store = redisStore
			a.sessionCache = redisStore
			log.Debug("Redis session store enabled", "ttl", cfg.Redis.SessionTTL)
		}
	}

	clientCfg := chaoxing.DefaultClientConfig()
	clientCfg.Scheme = chaoxing.Scheme(cfg.Platform.EncryptScheme)
	clientCfg.EncryptKey = cfg.Platform.EncryptKey
	clientCfg.RequestDelay = cfg.Platform.RequestDelay
	clientCfg.Timeout = cfg.Platform.RequestTimeout
	clientCfg.BrowserUserAgent = cfg.Platform.BrowserUserAgent
	clientCfg.AppUserAgent = cfg.Platform.AppUserAgent
	clientCfg.SessionStore = store
	clientCfg.Logger = log

	a.client, err = chaoxing.NewClient(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create platform client: %w", err)
	}

	return a, nil
}

// Close releases the store connections.
func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) onboardHandler() *command.OnboardUserHandler {
	return command.NewOnboardUserHandler(a.users, a.client, a.log)
}

func (a *app) signInHandler() *command.SignInHandler {
	return command.NewSignInHandler(a.users, a.activities, a.client, command.SignInPolicy{
		MaxAttempts: a.cfg.SignIn.MaxAttempts,
		Backoff:     a.cfg.SignIn.Backoff,
	}, a.log)
}

func (a *app) logoutHandler() *command.LogoutHandler {
	return command.NewLogoutHandler(a.users, a.sessionCache, a.log)
}

func (a *app) setBanHandler() *command.SetBanHandler {
	return command.NewSetBanHandler(a.users, a.log)
}

func (a *app) coursesHandler() *query.ListCoursesHandler {
	return query.NewListCoursesHandler(a.users, a.courses, a.log)
}

func (a *app) activitiesHandler() *query.GetCourseActivitiesHandler {
	return query.NewGetCourseActivitiesHandler(a.users, a.courses, a.activities, a.client, a.log)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the process logger. Logs go to stderr so command output
// on stdout stays clean.
func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Observability.LogLevel),
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	if cfg.IsProduction() || cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	log := slog.New(handler).With("app", cfg.App.Name, "version", version)
	slog.SetDefault(log)

	return log
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
