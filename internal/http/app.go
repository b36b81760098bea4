// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"barberia_backend/internal/auth/session"
	"barberia_backend/internal/events"
	"barberia_backend/platform/config"
	"barberia_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.SessionConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and session settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Checks are the named dependencies probed by /readyz (database, Redis).
	Checks map[string]HealthChecker
	// Sessions resolves session cookies for the auth middleware.
	Sessions session.Store
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
