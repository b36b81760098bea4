// Package notification sends transactional email for identity-sync events:
// a welcome message when a registration completes and an operator alert when
// a registration is rolled back.
package notification

import (
	"context"

	"barberia_backend/platform/config"
)

// Sender delivers notification emails.
type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, nombre string) error
	SendRollbackAlertEmail(ctx context.Context, toEmail, failedEmail, cause string) error
}

// NewSender returns the configured sender: SMTP when email is enabled,
// otherwise a no-op.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

// NoopSender drops all email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendWelcomeEmail(context.Context, string, string) error { return nil }

func (NoopSender) SendRollbackAlertEmail(context.Context, string, string, string) error {
	return nil
}
