package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run(ctx context.Context) error {
	if err := a.httpServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	logrus.Info("application started successfully")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logrus.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down all application components in reverse
// dependency order. The session manager runs before Redis closes so
// every live session gets a final save.
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	if err := a.httpServer.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		logrus.Errorf("metrics server shutdown error: %v", err)
	}

	if a.sessions != nil {
		a.sessions.Shutdown(ctx)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close error: %v", err)
		}
	}

	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}
