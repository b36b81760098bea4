// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"barberia_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Identity-Sync Domain Events
// =============================================================================

// UserLoggedIn is published after a successful login sync.
// Fallback marks a degraded (provider-only) session created while the
// business API was unreachable.
type UserLoggedIn struct {
	BaseEvent
	Email    string `json:"email"`
	RoleID   int    `json:"roleId"`
	Google   bool   `json:"google"`
	Fallback bool   `json:"fallback"`
}

func (e UserLoggedIn) EventName() string { return "auth.user.logged_in" }

// UserRegistered is published when the registration saga completes: the
// provider identity and the business record both exist.
type UserRegistered struct {
	BaseEvent
	Email  string `json:"email"`
	RoleID int    `json:"roleId"`
	Nombre string `json:"nombre"`
}

func (e UserRegistered) EventName() string { return "auth.user.registered" }

// RegistrationRolledBack is published when the registration saga compensated:
// the business sync failed and the just-created provider account was removed.
// CleanupQueued marks a failed inline delete handed to the background reaper.
type RegistrationRolledBack struct {
	BaseEvent
	Email         string `json:"email"`
	Cause         string `json:"cause"`
	CleanupQueued bool   `json:"cleanupQueued"`
}

func (e RegistrationRolledBack) EventName() string { return "auth.registration.rolled_back" }

// UserLoggedOut is published when a session is cleared.
type UserLoggedOut struct {
	BaseEvent
	Email string `json:"email"`
}

func (e UserLoggedOut) EventName() string { return "auth.user.logged_out" }
