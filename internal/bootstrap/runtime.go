// Package bootstrap assembles the process-wide pieces shared by the server and
// the operator CLI: pool, sync lane, run lock and the provider module.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/jacksonlee411/provider-portal/modules"
	"github.com/jacksonlee411/provider-portal/modules/provider"
	"github.com/jacksonlee411/provider-portal/modules/provider/infrastructure/registry"
	"github.com/jacksonlee411/provider-portal/modules/provider/services"
	"github.com/jacksonlee411/provider-portal/pkg/application"
	"github.com/jacksonlee411/provider-portal/pkg/configuration"
	"github.com/jacksonlee411/provider-portal/pkg/lane"
	"github.com/jacksonlee411/provider-portal/pkg/middleware"
	"github.com/jacksonlee411/provider-portal/pkg/runlock"
)

type Options struct {
	// WithHTTP registers controllers and the trigger rate limit.
	WithHTTP bool
	// ConnectTimeout bounds pool creation.
	ConnectTimeout time.Duration
}

type Runtime struct {
	Conf   *configuration.Configuration
	Logger *logrus.Logger
	Pool   *pgxpool.Pool
	App    application.Application
	Lane   *lane.Lane
	Sync   *services.SyncService
	// LimitStore backs HTTP rate limits; nil when they are disabled.
	LimitStore limiter.Store
}

func New(ctx context.Context, conf *configuration.Configuration, opts Options) (*Runtime, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	logger := conf.Logger()

	poolCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	pool, err := pgxpool.New(poolCtx, conf.Database.Opts)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	app := application.New(&application.ApplicationOptions{Pool: pool, Logger: logger})
	app.RegisterShutdownHooks(func(context.Context) error {
		pool.Close()
		return nil
	})

	rt := &Runtime{Conf: conf, Logger: logger, Pool: pool, App: app}
	if err := rt.load(opts); err != nil {
		_ = app.Shutdown(context.WithoutCancel(ctx))
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) load(opts Options) error {
	conf, app, logger := rt.Conf, rt.App, rt.Logger

	var locker runlock.Locker = runlock.Noop{}
	if conf.Sync.LockRedisURL != "" {
		redisLocker, err := runlock.NewRedisLockerFromURL(conf.Sync.LockRedisURL, conf.Sync.LockTTL)
		if err != nil {
			return err
		}
		app.RegisterShutdownHooks(func(context.Context) error { return redisLocker.Close() })
		locker = redisLocker
	}

	l, err := lane.New(lane.Options{
		Name:            conf.Lane.Name,
		QueueCapacity:   conf.Lane.QueueCapacity,
		ShutdownTimeout: conf.Lane.ShutdownTimeout,
		Logger:          logger.WithField("component", "lane"),
	})
	if err != nil {
		return err
	}
	// Registered last so it runs first: queued syncs finish before the pool
	// and lock client go away.
	app.RegisterShutdownHooks(l.Shutdown)
	rt.Lane = l

	moduleOpts := provider.ModuleOptions{
		Source:             registry.FromConfig(conf.Registry, logger.WithField("component", "registry")),
		Jobs:               l,
		Locker:             locker,
		ApplyDeactivations: conf.Sync.ApplyDeactivations,
		WithControllers:    opts.WithHTTP,
		Logger:             logrus.NewEntry(logger),
	}
	if opts.WithHTTP && conf.RateLimit.Enabled {
		rt.LimitStore = rateLimitStore(conf.RateLimit, logger)
		moduleOpts.TriggerLimiter = middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.TriggerPerMinute,
			Period:            time.Minute,
			Store:             rt.LimitStore,
			KeyFunc:           func(*http.Request) string { return "provider-sync-trigger" },
		})
	}
	if err := modules.Load(app, provider.NewModule(moduleOpts)); err != nil {
		return err
	}

	rt.Sync = app.Service(services.SyncService{}).(*services.SyncService)
	return nil
}

func rateLimitStore(opts configuration.RateLimitOptions, logger *logrus.Logger) limiter.Store {
	if opts.Storage == "redis" {
		store, err := middleware.NewRedisStore(opts.RedisURL)
		if err == nil {
			return store
		}
		logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
	}
	return middleware.NewMemoryStore()
}

// Migrate applies every registered schema.
func (rt *Runtime) Migrate(ctx context.Context) error {
	return rt.App.Migrations().Run(ctx)
}

// Close drains the lane, then releases the lock client and the pool.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.App.Shutdown(ctx)
}
