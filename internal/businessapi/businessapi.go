// Package businessapi provides the client for the business API that owns
// usuario, cliente, and barbero records. It is a pure adapter: transport and
// status failures become typed application errors, and retry/fallback policy
// is entirely a caller concern.
package businessapi

import "context"

// Usuario is the business API's user row of record. Correo (lower-cased) is
// the join key to the federated identity's email; at most one Usuario exists
// per distinct email.
type Usuario struct {
	ID         int    `json:"id"`
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena,omitempty"`
	RolID      int    `json:"rolId"`
	Estado     bool   `json:"estado"`
	Nombre     string `json:"nombre"`
	Apellido   string `json:"apellido"`
	Telefono   string `json:"telefono,omitempty"`
	Documento  string `json:"documento,omitempty"`
	FotoPerfil string `json:"fotoPerfil,omitempty"`
}

// Cliente is the role-specific profile for Cliente/Cajero users.
type Cliente struct {
	ID        int    `json:"id"`
	UsuarioID int    `json:"usuarioId"`
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Correo    string `json:"correo"`
	Telefono  string `json:"telefono,omitempty"`
	Documento string `json:"documento,omitempty"`
	Estado    bool   `json:"estado"`
}

// Barbero is the role-specific profile for Barbero users.
type Barbero struct {
	ID        int    `json:"id"`
	UsuarioID int    `json:"usuarioId"`
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Correo    string `json:"correo"`
	Telefono  string `json:"telefono,omitempty"`
	Documento string `json:"documento,omitempty"`
	Estado    bool   `json:"estado"`
}

// API is the capability set the identity-sync core consumes.
type API interface {
	ListUsuarios(ctx context.Context) ([]Usuario, error)
	// FindUsuarioByCorreo returns (nil, nil) when no record matches.
	FindUsuarioByCorreo(ctx context.Context, correo string) (*Usuario, error)
	CreateUsuario(ctx context.Context, u Usuario) (*Usuario, error)
	UpdateUsuario(ctx context.Context, id int, u Usuario) (*Usuario, error)
	DeleteUsuario(ctx context.Context, id int) error

	ListClientes(ctx context.Context) ([]Cliente, error)
	CreateCliente(ctx context.Context, c Cliente) (*Cliente, error)

	ListBarberos(ctx context.Context) ([]Barbero, error)
	CreateBarbero(ctx context.Context, b Barbero) (*Barbero, error)
}
