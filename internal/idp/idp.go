// Package idp provides the client for the federated identity provider
// (a Google Identity Toolkit compatible REST API). It is a pure adapter:
// it translates provider error codes into the application error taxonomy
// and performs no retries and no business logic.
package idp

import "context"

// Identity is the federated identity issued by the provider for an
// authenticated session. Immutable once issued; replaced on re-authentication.
type Identity struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	IDToken       string
	RefreshToken  string
}

// Provider is the capability set consumed from the identity provider.
type Provider interface {
	// SignIn authenticates an email/password pair.
	SignIn(ctx context.Context, email, password string) (Identity, error)
	// SignUp creates a new account at the provider.
	SignUp(ctx context.Context, email, password string) (Identity, error)
	// SignInWithGoogle exchanges a Google-issued ID token for a provider identity.
	SignInWithGoogle(ctx context.Context, googleIDToken string) (Identity, error)
	// Lookup resolves the identity behind an ID token, including the
	// authoritative emailVerified flag.
	Lookup(ctx context.Context, idToken string) (Identity, error)
	// SendEmailVerification requests a verification email for the account.
	SendEmailVerification(ctx context.Context, idToken string) error
	// SendPasswordReset requests a password-reset email.
	SendPasswordReset(ctx context.Context, email string) error
	// VerifyEmail applies an out-of-band verification code and returns the
	// verified email address.
	VerifyEmail(ctx context.Context, oobCode string) (string, error)
	// VerifyPasswordResetCode checks a reset code without consuming it and
	// returns the email it was issued for.
	VerifyPasswordResetCode(ctx context.Context, oobCode string) (string, error)
	// ConfirmPasswordReset consumes a reset code and sets the new password.
	ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error
	// DeleteAccount removes the account behind the ID token. Used by the
	// registration saga's compensation step.
	DeleteAccount(ctx context.Context, idToken string) error
	// SignOut ends the provider-side session for the given account, when the
	// provider supports it.
	SignOut(ctx context.Context, uid string) error
}
