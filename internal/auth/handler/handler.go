// Package handler exposes the auth HTTP endpoints: login, registration,
// Google sign-in, logout, email verification, and password reset.
package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"barberia_backend/internal/auth/roles"
	"barberia_backend/internal/auth/service"
	"barberia_backend/internal/auth/transport"
	"barberia_backend/platform/config"
	"barberia_backend/platform/httpkit"
	"barberia_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// AvatarUploader stores a profile photo and returns its public URL.
// Wired from the composition root when object storage is configured.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
}

type Handler struct {
	svc     *service.Service
	cfg     config.SessionConfig
	val     *validator.Validator
	avatars AvatarUploader
}

func New(svc *service.Service, cfg config.SessionConfig, val *validator.Validator) *Handler {
	return &Handler{svc: svc, cfg: cfg, val: val}
}

// SetAvatarUploader enables multipart photo uploads. Without it only direct
// URL updates are accepted.
func (h *Handler) SetAvatarUploader(avatars AvatarUploader) {
	h.avatars = avatars
}

// RegisterRoutes mounts the public auth endpoints. The login, register, and
// google endpoints sit behind the stricter auth rate limiter.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authLimited gin.HandlerFunc) {
	rg.POST("/login", authLimited, h.Login)
	rg.POST("/register", authLimited, h.Register)
	rg.POST("/google", authLimited, h.LoginWithGoogle)
	rg.POST("/logout", h.Logout)
	rg.POST("/password-reset", authLimited, h.RequestPasswordReset)
	rg.POST("/password-reset/confirm", h.ConfirmPasswordReset)
	rg.POST("/verify-email", h.VerifyEmail)
	rg.POST("/verify-email/resend", h.ResendEmailVerification)
}

// RegisterUserRoutes mounts the session-protected user endpoints.
func (h *Handler) RegisterUserRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
	rg.PUT("/me/photo", h.UpdatePhoto)
}

func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Correo, req.Contrasena, explicitRole(req.Rol))
	if httpkit.HandleError(c, err) {
		return
	}

	h.setSessionCookie(c, result.SessionID)
	httpkit.OK(c, transport.LoginResponse{User: transport.NewUserResponse(result.User)})
}

func (h *Handler) LoginWithGoogle(c *gin.Context) {
	var req transport.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.LoginWithGoogle(c.Request.Context(), req.IDToken, explicitRole(req.Rol))
	if httpkit.HandleError(c, err) {
		return
	}

	h.setSessionCookie(c, result.SessionID)
	httpkit.OK(c, transport.LoginResponse{User: transport.NewUserResponse(result.User)})
}

func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rol := roles.DefaultRole
	if parsed, ok := roles.FromName(req.Rol); ok {
		rol = parsed
	}

	err := h.svc.Register(c.Request.Context(), service.Registration{
		Correo:    req.Correo,
		Password:  req.Contrasena,
		Rol:       rol,
		Nombre:    req.Nombre,
		Apellido:  req.Apellido,
		Telefono:  req.Telefono,
		Documento: req.Documento,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.MessageResponse{
		Message: "registro exitoso, verifica tu correo",
	})
}

func (h *Handler) Logout(c *gin.Context) {
	sessionID, _ := c.Cookie(h.cfg.GetSessionCookieName())
	if sessionID != "" {
		if err := h.svc.Logout(c.Request.Context(), sessionID); httpkit.HandleError(c, err) {
			return
		}
	}

	h.clearSessionCookie(c)
	httpkit.OK(c, transport.MessageResponse{Message: "sesión cerrada"})
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req transport.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	// Always answer 200: the response must not reveal whether the email has
	// an account.
	_ = h.svc.ResetPassword(c.Request.Context(), req.Correo)
	httpkit.OK(c, transport.MessageResponse{Message: "si la cuenta existe, recibirás un correo"})
}

func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req transport.PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.ConfirmPasswordReset(c.Request.Context(), req.OobCode, req.NuevaContrasena)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MessageResponse{Message: "contraseña actualizada"})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	var req transport.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.VerifyEmail(c.Request.Context(), req.OobCode); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MessageResponse{Message: "correo verificado"})
}

func (h *Handler) ResendEmailVerification(c *gin.Context) {
	sessionID, _ := c.Cookie(h.cfg.GetSessionCookieName())
	err := h.svc.ResendEmailVerification(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.MessageResponse{Message: "correo de verificación enviado"})
}

func (h *Handler) Me(c *gin.Context) {
	sessionID, _ := c.Cookie(h.cfg.GetSessionCookieName())
	user, err := h.svc.CurrentUser(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	if user == nil {
		httpkit.Error(c, http.StatusUnauthorized, "no active session", nil)
		return
	}

	httpkit.OK(c, transport.NewUserResponse(*user))
}

// UpdatePhoto accepts either a multipart image upload (stored in object
// storage) or a JSON body carrying an already-hosted URL.
func (h *Handler) UpdatePhoto(c *gin.Context) {
	sessionID, _ := c.Cookie(h.cfg.GetSessionCookieName())

	var photoURL string
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if h.avatars == nil {
			httpkit.Error(c, http.StatusBadRequest, "photo uploads not configured", nil)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		defer file.Close()

		user, err := h.svc.CurrentUser(c.Request.Context(), sessionID)
		if httpkit.HandleError(c, err) {
			return
		}
		if user == nil {
			httpkit.Error(c, http.StatusUnauthorized, "no active session", nil)
			return
		}

		folder := fmt.Sprintf("usuarios/%d", user.ID)
		photoURL, err = h.avatars.UploadAvatar(
			c.Request.Context(),
			folder,
			fileHeader.Filename,
			fileHeader.Header.Get("Content-Type"),
			file,
			fileHeader.Size,
		)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
	} else {
		var req transport.UpdatePhotoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
		photoURL = req.FotoPerfil
	}

	user, err := h.svc.UpdatePhoto(c.Request.Context(), sessionID, photoURL)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewUserResponse(*user))
}

func (h *Handler) setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(h.cfg.GetSessionCookieSameSite())
	c.SetCookie(
		h.cfg.GetSessionCookieName(),
		sessionID,
		int(h.cfg.GetSessionTTL().Seconds()),
		"/",
		h.cfg.GetSessionCookieDomain(),
		h.cfg.GetSessionCookieSecure(),
		true,
	)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(h.cfg.GetSessionCookieSameSite())
	c.SetCookie(
		h.cfg.GetSessionCookieName(),
		"",
		-1,
		"/",
		h.cfg.GetSessionCookieDomain(),
		h.cfg.GetSessionCookieSecure(),
		true,
	)
}

func explicitRole(name string) *roles.RoleID {
	if role, ok := roles.FromName(name); ok {
		return &role
	}
	return nil
}
