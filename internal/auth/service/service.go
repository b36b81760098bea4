// Package service implements the identity synchronization orchestrator: the
// saga that reconciles a federated identity with the business API's usuario
// record and its role profile across login, registration, and Google sign-in,
// tolerating partial failures between the two systems of record.
package service

import (
	"context"
	"strings"

	"barberia_backend/internal/auth/provision"
	"barberia_backend/internal/auth/rolecache"
	"barberia_backend/internal/auth/roles"
	"barberia_backend/internal/auth/session"
	"barberia_backend/internal/businessapi"
	"barberia_backend/internal/events"
	"barberia_backend/internal/idp"
	"barberia_backend/platform/apperr"
	"barberia_backend/platform/logger"
	"barberia_backend/platform/phone"
)

// federatedPasswordPlaceholder is stored as contrasena on usuario records.
// Credentials live at the identity provider; the business API only requires
// the column to be non-empty.
const federatedPasswordPlaceholder = "federated-auth"

// OrphanReaper hands a failed compensating delete to a background worker so
// the no-orphan-identity invariant is eventually restored.
type OrphanReaper interface {
	EnqueueOrphanDelete(ctx context.Context, idToken, email string) error
}

// Registration carries the registration form fields.
type Registration struct {
	Correo    string
	Password  string
	Rol       roles.RoleID
	Nombre    string
	Apellido  string
	Telefono  string
	Documento string
}

// LoginResult is a successful login outcome: the persisted session and its ID.
type LoginResult struct {
	SessionID string
	User      session.User
}

// Service is the identity-sync orchestrator. Each flow is a single linear
// sequence of awaited upstream calls with no internal retries; retry and
// backoff, if ever wanted, belong in a decorator around this type.
type Service struct {
	provider    idp.Provider
	api         businessapi.API
	resolver    *roles.Resolver
	cache       rolecache.Store
	sessions    session.Store
	provisioner *provision.Provisioner
	bus         events.Bus
	reaper      OrphanReaper
	log         *logger.Logger
}

// New creates the orchestrator.
func New(
	provider idp.Provider,
	api businessapi.API,
	resolver *roles.Resolver,
	cache rolecache.Store,
	sessions session.Store,
	provisioner *provision.Provisioner,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		provider:    provider,
		api:         api,
		resolver:    resolver,
		cache:       cache,
		sessions:    sessions,
		provisioner: provisioner,
		bus:         bus,
		log:         log,
	}
}

// SetOrphanReaper wires the background cleanup queue. Optional: without it a
// failed compensating delete is only logged.
func (s *Service) SetOrphanReaper(reaper OrphanReaper) {
	s.reaper = reaper
}

// Login authenticates against the identity provider and syncs the identity
// with the business API. Login never creates usuario records; an email
// without a business record fails with a not-registered error. A transport
// failure to the business API falls back to the cached role, when present,
// yielding a degraded provider-only session.
func (s *Service) Login(ctx context.Context, correo, password string, explicitRole *roles.RoleID) (*LoginResult, error) {
	identity, err := s.provider.SignIn(ctx, correo, password)
	if err != nil {
		s.log.AuthEvent("login", correo, false, err.Error())
		return nil, err
	}

	return s.completeLogin(ctx, identity, explicitRole, false)
}

// LoginWithGoogle mirrors Login with the federated identity coming from a
// Google sign-in. Google users must still be registered in the business
// sense; no usuario record is created here either.
func (s *Service) LoginWithGoogle(ctx context.Context, googleIDToken string, explicitRole *roles.RoleID) (*LoginResult, error) {
	identity, err := s.provider.SignInWithGoogle(ctx, googleIDToken)
	if err != nil {
		s.log.AuthEvent("login_google", "", false, err.Error())
		return nil, err
	}

	return s.completeLogin(ctx, identity, explicitRole, true)
}

func (s *Service) completeLogin(ctx context.Context, identity idp.Identity, explicitRole *roles.RoleID, google bool) (*LoginResult, error) {
	role := s.resolver.Resolve(ctx, explicitRole, identity.Email, identity.IDToken)

	usuario, err := s.api.FindUsuarioByCorreo(ctx, identity.Email)
	if err != nil {
		if apperr.GetKind(err) != apperr.KindUnavailable {
			return nil, err
		}
		return s.fallbackLogin(ctx, identity, google, err)
	}
	if usuario == nil {
		s.log.AuthEvent("login", identity.Email, false, "not registered")
		return nil, apperr.NotRegistered("account not registered").WithOp("auth.login")
	}

	usuario, err = s.alignUsuario(ctx, usuario, role)
	if err != nil {
		return nil, err
	}

	// Best-effort: a provisioning hiccup must not block an existing user.
	_ = s.provisioner.EnsureProfile(ctx, usuario, role, identity, false)

	if err := s.cache.Put(ctx, identity.Email, role); err != nil {
		s.log.Warn("role cache write failed", "correo", identity.Email, "error", err)
	}

	user := syncedSessionUser(usuario, identity, role)
	sessionID, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, apperr.Internal("create session", err).WithOp("auth.login")
	}

	s.bus.Publish(ctx, events.UserLoggedIn{
		BaseEvent: events.NewBaseEvent(),
		Email:     user.Email,
		RoleID:    int(role),
		Google:    google,
	})
	s.log.AuthEvent("login", identity.Email, true, "")

	return &LoginResult{SessionID: sessionID, User: user}, nil
}

// fallbackLogin synthesizes a provider-only session from the federated
// identity plus the cached role, so a previously-successful user is not
// locked out by a transient business-API outage.
func (s *Service) fallbackLogin(ctx context.Context, identity idp.Identity, google bool, cause error) (*LoginResult, error) {
	cached, ok := s.cache.Get(ctx, identity.Email)
	if !ok {
		s.log.AuthEvent("login", identity.Email, false, "business API unavailable, no cached role")
		return nil, apperr.Unavailable("service temporarily unavailable", cause).WithOp("auth.login")
	}

	user := session.User{
		Name:          identity.DisplayName,
		Email:         rolecache.NormalizeEmail(identity.Email),
		Role:          cached,
		FotoPerfil:    identity.PhotoURL,
		ProviderUID:   identity.UID,
		EmailVerified: identity.EmailVerified,
		ProviderOnly:  true,
		IDToken:       identity.IDToken,
	}

	sessionID, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, apperr.Internal("create session", err).WithOp("auth.login")
	}

	s.bus.Publish(ctx, events.UserLoggedIn{
		BaseEvent: events.NewBaseEvent(),
		Email:     user.Email,
		RoleID:    int(cached),
		Google:    google,
		Fallback:  true,
	})
	s.log.AuthEvent("login_fallback", identity.Email, true, "")

	return &LoginResult{SessionID: sessionID, User: user}, nil
}

// alignUsuario updates the record's role and status when they differ from
// the resolved role. An unchanged record is reused without any write.
func (s *Service) alignUsuario(ctx context.Context, usuario *businessapi.Usuario, role roles.RoleID) (*businessapi.Usuario, error) {
	if usuario.RolID == int(role) && usuario.Estado {
		return usuario, nil
	}

	aligned := *usuario
	aligned.RolID = int(role)
	aligned.Estado = true
	return s.api.UpdateUsuario(ctx, usuario.ID, aligned)
}

// Register runs the two-step registration saga: create the provider
// identity, then sync the business record strictly. A failure in the second
// step compensates by deleting the just-created provider account, so no
// identity exists without a confirmed business record. On success no session
// is established: users verify their email out-of-band before first login.
func (s *Service) Register(ctx context.Context, reg Registration) error {
	if !reg.Rol.Valid() {
		reg.Rol = roles.DefaultRole
	}

	identity, err := s.provider.SignUp(ctx, reg.Correo, reg.Password)
	if err != nil {
		// Nothing to compensate: the provider account was never created.
		s.log.AuthEvent("register", reg.Correo, false, err.Error())
		return err
	}

	if err := s.syncRegistration(ctx, identity, reg); err != nil {
		return s.compensate(ctx, identity, err)
	}

	if err := s.provider.SendEmailVerification(ctx, identity.IDToken); err != nil {
		s.log.UpstreamError("idp", "send verification email", err)
	}

	s.bus.Publish(ctx, events.UserRegistered{
		BaseEvent: events.NewBaseEvent(),
		Email:     rolecache.NormalizeEmail(reg.Correo),
		RoleID:    int(reg.Rol),
		Nombre:    reg.Nombre,
	})
	s.log.AuthEvent("register", reg.Correo, true, "")
	return nil
}

// syncRegistration is the strict business-API leg of the saga. No cached
// fallback applies here: a fallback identity must never be created without a
// confirmed business record.
func (s *Service) syncRegistration(ctx context.Context, identity idp.Identity, reg Registration) error {
	usuario, err := s.api.FindUsuarioByCorreo(ctx, reg.Correo)
	if err != nil {
		return err
	}

	if usuario == nil {
		usuario, err = s.api.CreateUsuario(ctx, businessapi.Usuario{
			Correo:     rolecache.NormalizeEmail(reg.Correo),
			Contrasena: federatedPasswordPlaceholder,
			RolID:      int(reg.Rol),
			Estado:     true,
			Nombre:     reg.Nombre,
			Apellido:   reg.Apellido,
			Telefono:   phone.NormalizeE164(reg.Telefono),
			Documento:  reg.Documento,
		})
		if err != nil {
			return err
		}
	} else {
		usuario, err = s.alignUsuario(ctx, usuario, reg.Rol)
		if err != nil {
			return err
		}
	}

	if err := s.provisioner.EnsureProfile(ctx, usuario, reg.Rol, identity, true); err != nil {
		return err
	}

	if err := s.cache.Put(ctx, reg.Correo, reg.Rol); err != nil {
		s.log.Warn("role cache write failed", "correo", reg.Correo, "error", err)
	}
	return nil
}

// compensate deletes the provider account created in step one of the saga.
// When the delete itself fails the orphan is handed to the background reaper
// so the invariant is restored asynchronously.
func (s *Service) compensate(ctx context.Context, identity idp.Identity, cause error) error {
	queued := false
	if err := s.provider.DeleteAccount(ctx, identity.IDToken); err != nil {
		s.log.UpstreamError("idp", "compensating delete", err)
		if s.reaper != nil {
			if qerr := s.reaper.EnqueueOrphanDelete(ctx, identity.IDToken, identity.Email); qerr != nil {
				s.log.Error("orphan cleanup enqueue failed", "correo", identity.Email, "error", qerr)
			} else {
				queued = true
			}
		}
	}

	s.bus.Publish(ctx, events.RegistrationRolledBack{
		BaseEvent:     events.NewBaseEvent(),
		Email:         rolecache.NormalizeEmail(identity.Email),
		Cause:         cause.Error(),
		CleanupQueued: queued,
	})
	s.log.AuthEvent("register", identity.Email, false, cause.Error())

	return apperr.Rollback("registration rolled back", cause).WithOp("auth.register")
}

// Logout clears the session. Local state always wins: the persisted session
// is removed even when provider sign-out fails, so the UI can never be stuck
// looking authenticated after the user asked to leave.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	user, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.log.Warn("session lookup failed during logout", "error", err)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperr.Internal("clear session", err).WithOp("auth.logout")
	}

	if user != nil {
		if err := s.provider.SignOut(ctx, user.ProviderUID); err != nil {
			s.log.UpstreamError("idp", "sign out", err)
		}
		s.bus.Publish(ctx, events.UserLoggedOut{
			BaseEvent: events.NewBaseEvent(),
			Email:     user.Email,
		})
	}
	return nil
}

// CurrentUser returns the session user, or nil when the session is absent.
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*session.User, error) {
	return s.sessions.Get(ctx, sessionID)
}

// ResetPassword requests a password-reset email from the provider.
func (s *Service) ResetPassword(ctx context.Context, correo string) error {
	return s.provider.SendPasswordReset(ctx, correo)
}

// ResendEmailVerification requests a fresh verification email for the
// session's account.
func (s *Service) ResendEmailVerification(ctx context.Context, sessionID string) error {
	user, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return apperr.Internal("session lookup", err).WithOp("auth.resend_verification")
	}
	if user == nil {
		return apperr.Unauthorized("no active session").WithOp("auth.resend_verification")
	}
	return s.provider.SendEmailVerification(ctx, user.IDToken)
}

// VerifyEmail applies an out-of-band verification code.
func (s *Service) VerifyEmail(ctx context.Context, oobCode string) error {
	_, err := s.provider.VerifyEmail(ctx, oobCode)
	return err
}

// VerifyPasswordReset checks a reset code and returns the email it targets.
func (s *Service) VerifyPasswordReset(ctx context.Context, oobCode string) (string, error) {
	return s.provider.VerifyPasswordResetCode(ctx, oobCode)
}

// ConfirmPasswordReset consumes a reset code and sets the new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	return s.provider.ConfirmPasswordReset(ctx, oobCode, newPassword)
}

// UpdatePhoto propagates a new profile photo URL to the business record and
// the session copy.
func (s *Service) UpdatePhoto(ctx context.Context, sessionID, photoURL string) (*session.User, error) {
	user, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperr.Internal("session lookup", err).WithOp("auth.update_photo")
	}
	if user == nil {
		return nil, apperr.Unauthorized("no active session").WithOp("auth.update_photo")
	}

	if !user.ProviderOnly {
		usuario, err := s.api.FindUsuarioByCorreo(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		if usuario != nil {
			updated := *usuario
			updated.FotoPerfil = photoURL
			if _, err := s.api.UpdateUsuario(ctx, usuario.ID, updated); err != nil {
				return nil, err
			}
		}
	}

	user.FotoPerfil = photoURL
	if err := s.sessions.Update(ctx, sessionID, *user); err != nil {
		return nil, apperr.Internal("update session", err).WithOp("auth.update_photo")
	}
	return user, nil
}

// syncedSessionUser builds the denormalized UI projection from the aligned
// usuario record and the federated identity.
func syncedSessionUser(usuario *businessapi.Usuario, identity idp.Identity, role roles.RoleID) session.User {
	name := strings.TrimSpace(strings.TrimSpace(usuario.Nombre) + " " + strings.TrimSpace(usuario.Apellido))
	if name == "" {
		name = identity.DisplayName
	}

	foto := usuario.FotoPerfil
	if foto == "" {
		foto = identity.PhotoURL
	}

	return session.User{
		ID:            usuario.ID,
		Name:          name,
		Email:         rolecache.NormalizeEmail(usuario.Correo),
		Role:          role,
		Telefono:      usuario.Telefono,
		FotoPerfil:    foto,
		ProviderUID:   identity.UID,
		EmailVerified: identity.EmailVerified,
		IDToken:       identity.IDToken,
	}
}
