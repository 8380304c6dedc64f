package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"taskpipe/internal/port/primary"
	"taskpipe/internal/port/secondary"
)

// NewRouter creates an HTTP mux with all application routes registered.
func NewRouter(
	ingestService primary.IngestService,
	healthChecks []secondary.HealthChecker,
	logger *zap.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Task ingestion
	createHandler := NewCreateTaskHandler(ingestService, logger)
	mux.Handle("/tasks", createHandler)

	// Health check endpoint
	healthHandler := NewHealthHandler(healthChecks)
	mux.Handle("/health", healthHandler)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
