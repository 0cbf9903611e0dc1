package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/playforge/idle-season-service/internal/app"
	"github.com/playforge/idle-season-service/internal/config"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		logrus.Fatalf("application error: %v", err)
	}
}
