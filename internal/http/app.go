// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"
	"net/http"

	"prospecting_backend/internal/events"
	"prospecting_backend/platform/config"
	"prospecting_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	config.MetricsConfig
}

// HealthChecker is one readiness dependency (database, redis).
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration.
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health lists the dependencies /api/ready checks.
	Health []HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
