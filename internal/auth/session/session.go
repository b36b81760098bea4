// Package session holds the client-visible session: the denormalized
// SessionUser projection plus the store it is persisted in. Sessions are
// populated only by successful orchestrator outcomes and cleared on logout.
package session

import (
	"context"

	"barberia_backend/internal/auth/roles"
)

// User is the UI-facing projection of an authenticated user.
// ProviderOnly marks a degraded session built solely from the federated
// identity plus a cached role, with no business record behind it.
type User struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Role          roles.RoleID `json:"role"`
	Telefono      string       `json:"telefono,omitempty"`
	FotoPerfil    string       `json:"fotoPerfil,omitempty"`
	ProviderUID   string       `json:"providerUid"`
	EmailVerified bool         `json:"emailVerified"`
	ProviderOnly  bool         `json:"providerOnly"`
	// IDToken is the provider token backing the session. Server-side only;
	// the transport layer never exposes it to the UI.
	IDToken string `json:"idToken"`
}

// IsAdmin reports whether the session belongs to an administrator.
func (u User) IsAdmin() bool { return u.Role == roles.RoleAdmin }

// IsCliente reports whether the session belongs to a client.
func (u User) IsCliente() bool { return u.Role == roles.RoleCliente || u.Role == roles.RoleCajero }

// Store defines how sessions are stored and retrieved. Implementations must
// remain opaque key-value stores; session semantics live in the orchestrator.
type Store interface {
	// Create persists the user under a fresh session ID and returns the ID.
	Create(ctx context.Context, user User) (string, error)
	// Get returns the session user, or (nil, nil) when the session does not exist.
	Get(ctx context.Context, sessionID string) (*User, error)
	// Update overwrites an existing session in place, preserving its ID.
	Update(ctx context.Context, sessionID string, user User) error
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
