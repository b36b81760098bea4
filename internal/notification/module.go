package notification

import (
	"context"

	"barberia_backend/internal/events"
	"barberia_backend/platform/config"
	"barberia_backend/platform/logger"
)

// Module subscribes the email sender to identity-sync events. It is not
// HTTP-facing; delivery failures are logged and never bubble up.
type Module struct {
	sender Sender
	cfg    config.EmailConfig
	log    *logger.Logger
}

// New creates the notification module.
func New(sender Sender, cfg config.EmailConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, cfg: cfg, log: log}
}

// RegisterHandlers subscribes to the events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.UserRegistered{}.EventName(), events.HandlerFunc(m.onRegistered))
	bus.Subscribe(events.RegistrationRolledBack{}.EventName(), events.HandlerFunc(m.onRolledBack))
}

func (m *Module) onRegistered(ctx context.Context, event events.Event) error {
	e, ok := event.(events.UserRegistered)
	if !ok {
		return nil
	}

	if err := m.sender.SendWelcomeEmail(ctx, e.Email, e.Nombre); err != nil {
		m.log.Warn("welcome email failed", "email", e.Email, "error", err)
	}
	return nil
}

func (m *Module) onRolledBack(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RegistrationRolledBack)
	if !ok {
		return nil
	}

	operator := m.cfg.GetOperatorEmail()
	if operator == "" {
		return nil
	}

	if err := m.sender.SendRollbackAlertEmail(ctx, operator, e.Email, e.Cause); err != nil {
		m.log.Warn("rollback alert email failed", "email", e.Email, "error", err)
	}
	return nil
}
