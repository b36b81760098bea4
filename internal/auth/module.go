// Package auth provides the identity-sync bounded context module.
// This file defines the module that encapsulates all auth setup and route registration.
package auth

import (
	"barberia_backend/internal/auth/handler"
	"barberia_backend/internal/auth/provision"
	"barberia_backend/internal/auth/rolecache"
	"barberia_backend/internal/auth/roles"
	"barberia_backend/internal/auth/service"
	"barberia_backend/internal/auth/session"
	"barberia_backend/internal/businessapi"
	"barberia_backend/internal/events"
	apphttp "barberia_backend/internal/http"
	"barberia_backend/internal/idp"
	"barberia_backend/platform/config"
	"barberia_backend/platform/logger"
	"barberia_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(
	provider idp.Provider,
	api businessapi.API,
	cache rolecache.Store,
	sessions session.Store,
	cfg config.SessionConfig,
	eventBus events.Bus,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	resolver := roles.NewResolver(cache, log)
	provisioner := provision.New(api, log)
	svc := service.New(provider, api, resolver, cache, sessions, provisioner, eventBus, log)
	h := handler.New(svc, cfg, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the orchestrator for use by other composition-root wiring
// (e.g., the orphan reaper worker).
func (m *Module) Service() *service.Service {
	return m.service
}

// SetOrphanReaper wires the background cleanup queue for failed compensating
// deletes.
func (m *Module) SetOrphanReaper(reaper service.OrphanReaper) {
	m.service.SetOrphanReaper(reaper)
}

// SetAvatarUploader enables multipart profile photo uploads.
func (m *Module) SetAvatarUploader(avatars handler.AvatarUploader) {
	m.handler.SetAvatarUploader(avatars)
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public auth routes; the sensitive ones get the stricter limiter.
	m.handler.RegisterRoutes(ctx.V1.Group("/auth"), ctx.AuthRateLimiter.RateLimit())

	// Session-protected user routes
	m.handler.RegisterUserRoutes(ctx.Protected.Group("/users"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
