package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/playforge/idle-season-service/internal/config"
	"github.com/playforge/idle-season-service/internal/server"
	"github.com/playforge/idle-season-service/internal/session"
	"github.com/playforge/idle-season-service/pkg/ads"
	"github.com/playforge/idle-season-service/pkg/events"
	"github.com/playforge/idle-season-service/pkg/gameconfig"
	"github.com/playforge/idle-season-service/pkg/metrics"
	"github.com/playforge/idle-season-service/pkg/player"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	httpServer        *server.HTTPServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	sessions          *session.Manager
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance. Components
// come up in dependency order: Redis, game tuning, player store,
// session manager, servers, telemetry.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	game, err := gameconfig.Load(cfg.GameConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load game config from %s: %w", cfg.GameConfigPath, err)
	}
	logrus.Infof("loaded game tuning from %s", cfg.GameConfigPath)

	store := player.NewRedisStore(app.redisClient)
	health := player.NewHealthChecker(app.redisClient)

	// Metrics observe every progression event; the log sink keeps a
	// structured audit trail alongside.
	sink := events.MultiSink{metrics.Sink{}, events.LogSink{}}

	app.sessions = session.NewManager(store, game, sink, session.Options{
		AutosaveInterval:    time.Duration(cfg.AutosaveSeconds) * time.Second,
		SeasonCheckInterval: time.Duration(cfg.SeasonCheckSeconds) * time.Second,
		BoostSweepInterval:  time.Duration(cfg.BoostSweepSeconds) * time.Second,
		IdleTimeout:         time.Duration(cfg.SessionIdleMinutes) * time.Minute,
	})

	// Rewarded ads are confirmed client side. The server presenter
	// grants unconditionally; swap in a verification-backed presenter
	// when an ad network SSV callback is wired up.
	presenter := &ads.MockPresenter{}

	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, app.sessions, game, presenter, health, cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	if err := app.httpServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup HTTP server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, cfg.ZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initRedis initializes the Redis client.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	maxRetries := backoff.WithMaxRetries(b, 5)

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}
