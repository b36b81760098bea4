// Package provision ensures that every business-API user with a Cliente or
// Barbero role has exactly one matching role profile record.
package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barberia_backend/internal/auth/roles"
	"barberia_backend/internal/businessapi"
	"barberia_backend/internal/idp"
	"barberia_backend/platform/phone"
	"barberia_backend/platform/logger"
)

// profileKind is the role-specific record a user must have.
type profileKind int

const (
	kindNone profileKind = iota
	kindCliente
	kindBarbero
)

// Provisioner creates missing role profiles. The existence check and the
// create are not atomic against the business API; callers run at most one
// sync flow per session, and a server-side unique constraint on usuarioId is
// the backstop against concurrent duplicates.
type Provisioner struct {
	api businessapi.API
	log *logger.Logger
}

// New creates a profile provisioner.
func New(api businessapi.API, log *logger.Logger) *Provisioner {
	return &Provisioner{api: api, log: log}
}

// EnsureProfile guarantees a role profile exists for the usuario.
// With strict=true (registration) any failure is propagated so the caller
// can roll back. With strict=false (login) failures are logged and
// swallowed: an existing session must not be blocked by a provisioning
// hiccup once the user already exists.
func (p *Provisioner) EnsureProfile(ctx context.Context, usuario *businessapi.Usuario, role roles.RoleID, identity idp.Identity, strict bool) error {
	err := p.ensure(ctx, usuario, role, identity)
	if err == nil {
		return nil
	}

	if strict {
		return err
	}

	p.log.Warn("profile provisioning skipped",
		"correo", usuario.Correo,
		"role", role.Name(),
		"error", err,
	)
	return nil
}

func (p *Provisioner) ensure(ctx context.Context, usuario *businessapi.Usuario, role roles.RoleID, identity idp.Identity) error {
	switch kindForRole(role) {
	case kindCliente:
		return p.ensureCliente(ctx, usuario, identity)
	case kindBarbero:
		return p.ensureBarbero(ctx, usuario, identity)
	default:
		// Admin users carry no role profile.
		return nil
	}
}

func kindForRole(role roles.RoleID) profileKind {
	switch role {
	case roles.RoleCliente, roles.RoleCajero:
		return kindCliente
	case roles.RoleBarbero:
		return kindBarbero
	default:
		return kindNone
	}
}

func (p *Provisioner) ensureCliente(ctx context.Context, usuario *businessapi.Usuario, identity idp.Identity) error {
	existing, err := p.api.ListClientes(ctx)
	if err != nil {
		return err
	}

	for _, c := range existing {
		if c.UsuarioID == usuario.ID || sameCorreo(c.Correo, usuario.Correo) {
			return nil
		}
	}

	nombre, apellido := profileName(usuario, identity)
	_, err = p.api.CreateCliente(ctx, businessapi.Cliente{
		UsuarioID: usuario.ID,
		Nombre:    nombre,
		Apellido:  apellido,
		Correo:    usuario.Correo,
		Telefono:  phone.NormalizeE164(usuario.Telefono),
		Documento: documentOrPlaceholder(usuario.Documento),
		Estado:    true,
	})
	return err
}

func (p *Provisioner) ensureBarbero(ctx context.Context, usuario *businessapi.Usuario, identity idp.Identity) error {
	existing, err := p.api.ListBarberos(ctx)
	if err != nil {
		return err
	}

	for _, b := range existing {
		if b.UsuarioID == usuario.ID || sameCorreo(b.Correo, usuario.Correo) {
			return nil
		}
	}

	nombre, apellido := profileName(usuario, identity)
	_, err = p.api.CreateBarbero(ctx, businessapi.Barbero{
		UsuarioID: usuario.ID,
		Nombre:    nombre,
		Apellido:  apellido,
		Correo:    usuario.Correo,
		Telefono:  phone.NormalizeE164(usuario.Telefono),
		Documento: documentOrPlaceholder(usuario.Documento),
		Estado:    true,
	})
	return err
}

func sameCorreo(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// profileName prefers the usuario's own name fields and falls back to the
// federated display name so the record satisfies required-field constraints.
func profileName(usuario *businessapi.Usuario, identity idp.Identity) (string, string) {
	nombre := strings.TrimSpace(usuario.Nombre)
	apellido := strings.TrimSpace(usuario.Apellido)
	if nombre != "" {
		return nombre, apellido
	}

	parts := strings.Fields(identity.DisplayName)
	switch {
	case len(parts) >= 2:
		return parts[0], strings.Join(parts[1:], " ")
	case len(parts) == 1:
		return parts[0], ""
	default:
		return "Usuario", ""
	}
}

// documentOrPlaceholder fills the required documento field with a
// clearly-marked temporary value when the user has not provided one yet.
func documentOrPlaceholder(documento string) string {
	if trimmed := strings.TrimSpace(documento); trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("TMP-%d", time.Now().Unix())
}
