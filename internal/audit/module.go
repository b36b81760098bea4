// Package audit provides the audit-trail module: event subscriptions that
// persist identity-sync outcomes plus the admin listing endpoint.
package audit

import (
	"context"
	"fmt"
	"time"

	"barberia_backend/internal/events"
	apphttp "barberia_backend/internal/http"
	"barberia_backend/platform/config"
	"barberia_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the audit module implementing http.Module.
type Module struct {
	repo    Repository
	handler *Handler
	cfg     config.AuditConfig
	log     *logger.Logger
}

// NewModule creates the audit module.
func NewModule(pool *pgxpool.Pool, cfg config.AuditConfig, log *logger.Logger) *Module {
	repo := NewRepo(pool)
	return &Module{
		repo:    repo,
		handler: NewHandler(repo),
		cfg:     cfg,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "audit"
}

// Repository returns the audit repository for worker wiring.
func (m *Module) Repository() Repository {
	return m.repo
}

// RegisterRoutes mounts the admin audit endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

// RegisterHandlers subscribes the audit recorder to identity-sync events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.UserLoggedIn{}.EventName(), events.HandlerFunc(m.onLoggedIn))
	bus.Subscribe(events.UserRegistered{}.EventName(), events.HandlerFunc(m.onRegistered))
	bus.Subscribe(events.RegistrationRolledBack{}.EventName(), events.HandlerFunc(m.onRolledBack))
	bus.Subscribe(events.UserLoggedOut{}.EventName(), events.HandlerFunc(m.onLoggedOut))
}

func (m *Module) onLoggedIn(ctx context.Context, event events.Event) error {
	e, ok := event.(events.UserLoggedIn)
	if !ok {
		return nil
	}

	detail := ""
	if e.Google {
		detail = "google"
	}
	if e.Fallback {
		detail = "fallback"
	}

	return m.record(ctx, Entry{
		OccurredAt: e.OccurredAt(),
		Event:      "login",
		Email:      e.Email,
		Success:    true,
		Detail:     detail,
	})
}

func (m *Module) onRegistered(ctx context.Context, event events.Event) error {
	e, ok := event.(events.UserRegistered)
	if !ok {
		return nil
	}

	return m.record(ctx, Entry{
		OccurredAt: e.OccurredAt(),
		Event:      "register",
		Email:      e.Email,
		Success:    true,
	})
}

func (m *Module) onRolledBack(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RegistrationRolledBack)
	if !ok {
		return nil
	}

	detail := e.Cause
	if e.CleanupQueued {
		detail = fmt.Sprintf("%s (cleanup queued)", e.Cause)
	}

	return m.record(ctx, Entry{
		OccurredAt: e.OccurredAt(),
		Event:      "rollback",
		Email:      e.Email,
		Success:    false,
		Detail:     detail,
	})
}

func (m *Module) onLoggedOut(ctx context.Context, event events.Event) error {
	e, ok := event.(events.UserLoggedOut)
	if !ok {
		return nil
	}

	return m.record(ctx, Entry{
		OccurredAt: e.OccurredAt(),
		Event:      "logout",
		Email:      e.Email,
		Success:    true,
	})
}

func (m *Module) record(ctx context.Context, entry Entry) error {
	if err := m.repo.Insert(ctx, entry); err != nil {
		m.log.DatabaseError("insert audit entry", err)
		return err
	}
	return nil
}

// Prune removes entries older than the configured retention window.
func (m *Module) Prune(ctx context.Context) error {
	retention := m.cfg.GetAuditRetention()
	if retention <= 0 {
		return nil
	}

	removed, err := m.repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		m.log.DatabaseError("prune audit entries", err)
		return err
	}
	if removed > 0 {
		m.log.Info("audit entries pruned", "removed", removed)
	}
	return nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
