// Package roles defines the application role identifiers and the resolver
// that computes the effective role for a federated identity.
package roles

import (
	"strconv"
	"strings"
)

// RoleID matches the business API's rolId column.
type RoleID int

const (
	RoleAdmin   RoleID = 1
	RoleCliente RoleID = 2
	RoleBarbero RoleID = 3
	RoleCajero  RoleID = 4
)

// DefaultRole is assumed when no other source yields a role.
const DefaultRole = RoleCliente

// Name returns the canonical lowercase name for the role.
func (r RoleID) Name() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleCliente:
		return "cliente"
	case RoleBarbero:
		return "barbero"
	case RoleCajero:
		return "cajero"
	default:
		return "desconocido"
	}
}

// Valid reports whether the role is one of the known identifiers.
func (r RoleID) Valid() bool {
	switch r {
	case RoleAdmin, RoleCliente, RoleBarbero, RoleCajero:
		return true
	}
	return false
}

// FromName maps a role-like string ("admin", "administrador", "2", ...) to a
// RoleID. Matching is case- and whitespace-insensitive.
func FromName(value string) (RoleID, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "admin", "administrador", "administrator":
		return RoleAdmin, true
	case "cliente", "client", "customer":
		return RoleCliente, true
	case "barbero", "barber":
		return RoleBarbero, true
	case "cajero", "cashier":
		return RoleCajero, true
	}

	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return FromInt(n)
	}
	return 0, false
}

// FromInt maps a numeric rolId to a RoleID.
func FromInt(n int) (RoleID, bool) {
	role := RoleID(n)
	return role, role.Valid()
}
