// Package transport defines the request and response shapes for the auth
// HTTP surface. Session users are mapped here so server-only fields (the
// provider ID token) never reach the wire.
package transport

import "barberia_backend/internal/auth/session"

type LoginRequest struct {
	Correo     string `json:"correo" validate:"required,email"`
	Contrasena string `json:"contrasena" validate:"required,min=6"`
	Rol        string `json:"rol" validate:"omitempty,max=30"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
	Rol     string `json:"rol" validate:"omitempty,max=30"`
}

type RegisterRequest struct {
	Correo     string `json:"correo" validate:"required,email"`
	Contrasena string `json:"contrasena" validate:"required,min=6,max=128"`
	Rol        string `json:"rol" validate:"omitempty,max=30"`
	Nombre     string `json:"nombre" validate:"required,max=100"`
	Apellido   string `json:"apellido" validate:"omitempty,max=100"`
	Telefono   string `json:"telefono" validate:"omitempty,max=30"`
	Documento  string `json:"documento" validate:"omitempty,max=30"`
}

type PasswordResetRequest struct {
	Correo string `json:"correo" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	OobCode         string `json:"oobCode" validate:"required"`
	NuevaContrasena string `json:"nuevaContrasena" validate:"required,min=6,max=128"`
}

type VerifyEmailRequest struct {
	OobCode string `json:"oobCode" validate:"required"`
}

type UpdatePhotoRequest struct {
	FotoPerfil string `json:"fotoPerfil" validate:"required,url,max=500"`
}

type UserResponse struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Rol           string `json:"rol"`
	RolID         int    `json:"rolId"`
	Telefono      string `json:"telefono,omitempty"`
	FotoPerfil    string `json:"fotoPerfil,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	ProviderOnly  bool   `json:"providerOnly"`
}

type LoginResponse struct {
	User UserResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// NewUserResponse maps the session user to its wire shape, dropping
// server-only fields.
func NewUserResponse(user session.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Rol:           user.Role.Name(),
		RolID:         int(user.Role),
		Telefono:      user.Telefono,
		FotoPerfil:    user.FotoPerfil,
		EmailVerified: user.EmailVerified,
		ProviderOnly:  user.ProviderOnly,
	}
}
