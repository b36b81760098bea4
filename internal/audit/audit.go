// Package audit persists a queryable trail of identity-sync outcomes: logins
// (including degraded fallbacks), registrations, rollbacks, and logouts. The
// trail is written asynchronously off the event bus and never blocks a flow.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded identity-sync outcome.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
	Event      string    `json:"event"`
	Email      string    `json:"email"`
	Success    bool      `json:"success"`
	Detail     string    `json:"detail,omitempty"`
}

// ListParams filters and pages the audit listing.
type ListParams struct {
	Email  string
	Event  string
	Limit  int
	Offset int
}

// Repository is the persistence contract for audit entries.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, params ListParams) ([]Entry, int, error)
	// DeleteOlderThan prunes entries past the retention window and returns
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
