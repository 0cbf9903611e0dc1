package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/playforge/idle-season-service/pkg/common"
)

// SetupTelemetry initializes the OpenTelemetry tracer and propagators.
// Spans are exported to the given Zipkin endpoint. Returns a shutdown
// function that must be called on application shutdown.
func SetupTelemetry(ctx context.Context, serviceName, environment, zipkinEndpoint string) (func(context.Context) error, error) {
	tracerProvider, err := common.NewTracerProvider(serviceName, environment, zipkinEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	otel.SetTracerProvider(tracerProvider)
	logrus.Infof("set tracer provider (name: %s environment: %s)", serviceName, environment)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			b3.New(),
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	shutdown := func(ctx context.Context) error {
		logrus.Info("shutting down telemetry...")
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		logrus.Info("telemetry stopped")
		return nil
	}

	return shutdown, nil
}
