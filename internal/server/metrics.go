package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/playforge/idle-season-service/pkg/metrics"
)

// MetricsServer manages the Prometheus metrics HTTP server.
type MetricsServer struct {
	server   *http.Server
	port     int
	endpoint string
}

// NewMetricsServer creates a new metrics server instance.
func NewMetricsServer(port int, endpoint string) *MetricsServer {
	return &MetricsServer{
		port:     port,
		endpoint: endpoint,
	}
}

// Setup configures the metrics server and registers collectors.
func (m *MetricsServer) Setup() error {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)

	mux := http.NewServeMux()
	mux.Handle(m.endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", m.port),
		Handler: mux,
	}

	return nil
}

// Start begins serving metrics on the configured port.
func (m *MetricsServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("metrics server listening on port %d%s", m.port, m.endpoint)
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("metrics server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down metrics server...")
	if err := m.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("metrics server stopped")
	return nil
}
