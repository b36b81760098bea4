package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"barberia_backend/platform/apperr"
	"barberia_backend/platform/config"
	"barberia_backend/platform/logger"
)

const apiVersion = "v1"

// Client is the HTTP client for the identity toolkit API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

// New creates a new identity provider client.
func New(cfg config.IdentityProviderConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.GetIdentityProviderTimeout()},
		baseURL:    strings.TrimRight(cfg.GetIdentityProviderBaseURL(), "/"),
		apiKey:     cfg.GetIdentityProviderAPIKey(),
		log:        log,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInWithIdpRequest struct {
	PostBody          string `json:"postBody"`
	RequestURI        string `json:"requestUri"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
	ReturnIdpCredential bool `json:"returnIdpCredential"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type oobCodeRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email,omitempty"`
	IDToken     string `json:"idToken,omitempty"`
}

type applyOobRequest struct {
	OobCode string `json:"oobCode"`
}

type resetPasswordRequest struct {
	OobCode     string `json:"oobCode"`
	NewPassword string `json:"newPassword,omitempty"`
}

type deleteAccountRequest struct {
	IDToken string `json:"idToken"`
}

type accountResponse struct {
	LocalID        string `json:"localId"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	PhotoURL       string `json:"photoUrl"`
	ProfilePicture string `json:"profilePicture"`
	EmailVerified  bool   `json:"emailVerified"`
	IDToken        string `json:"idToken"`
	RefreshToken   string `json:"refreshToken"`
	Users          []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		PhotoURL      string `json:"photoUrl"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn authenticates an email/password pair against the provider.
func (c *Client) SignIn(ctx context.Context, email, password string) (Identity, error) {
	var resp accountResponse
	err := c.post(ctx, "accounts:signInWithPassword", signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return Identity{}, err
	}
	return c.hydrate(ctx, resp)
}

// SignUp creates a new provider account.
func (c *Client) SignUp(ctx context.Context, email, password string) (Identity, error) {
	var resp accountResponse
	err := c.post(ctx, "accounts:signUp", signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// SignInWithGoogle exchanges a Google ID token for a provider identity.
func (c *Client) SignInWithGoogle(ctx context.Context, googleIDToken string) (Identity, error) {
	var resp accountResponse
	err := c.post(ctx, "accounts:signInWithIdp", signInWithIdpRequest{
		PostBody:            "id_token=" + googleIDToken + "&providerId=google.com",
		RequestURI:          "http://localhost",
		ReturnSecureToken:   true,
		ReturnIdpCredential: true,
	}, &resp)
	if err != nil {
		return Identity{}, err
	}
	return c.hydrate(ctx, resp)
}

// Lookup resolves the account behind an ID token.
func (c *Client) Lookup(ctx context.Context, idToken string) (Identity, error) {
	var resp accountResponse
	if err := c.post(ctx, "accounts:lookup", lookupRequest{IDToken: idToken}, &resp); err != nil {
		return Identity{}, err
	}
	if len(resp.Users) == 0 {
		return Identity{}, apperr.NotFound("no account for token")
	}
	u := resp.Users[0]
	return Identity{
		UID:           u.LocalID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		EmailVerified: u.EmailVerified,
		IDToken:       idToken,
	}, nil
}

// SendEmailVerification requests a VERIFY_EMAIL out-of-band code.
func (c *Client) SendEmailVerification(ctx context.Context, idToken string) error {
	return c.post(ctx, "accounts:sendOobCode", oobCodeRequest{
		RequestType: "VERIFY_EMAIL",
		IDToken:     idToken,
	}, nil)
}

// SendPasswordReset requests a PASSWORD_RESET out-of-band code.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "accounts:sendOobCode", oobCodeRequest{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}, nil)
}

// VerifyEmail applies a VERIFY_EMAIL code and returns the verified address.
func (c *Client) VerifyEmail(ctx context.Context, oobCode string) (string, error) {
	var resp accountResponse
	if err := c.post(ctx, "accounts:update", applyOobRequest{OobCode: oobCode}, &resp); err != nil {
		return "", err
	}
	return resp.Email, nil
}

// VerifyPasswordResetCode checks a reset code without consuming it.
func (c *Client) VerifyPasswordResetCode(ctx context.Context, oobCode string) (string, error) {
	var resp accountResponse
	if err := c.post(ctx, "accounts:resetPassword", resetPasswordRequest{OobCode: oobCode}, &resp); err != nil {
		return "", err
	}
	return resp.Email, nil
}

// ConfirmPasswordReset consumes a reset code and sets the new password.
func (c *Client) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	return c.post(ctx, "accounts:resetPassword", resetPasswordRequest{
		OobCode:     oobCode,
		NewPassword: newPassword,
	}, nil)
}

// DeleteAccount removes the account behind the ID token.
func (c *Client) DeleteAccount(ctx context.Context, idToken string) error {
	return c.post(ctx, "accounts:delete", deleteAccountRequest{IDToken: idToken}, nil)
}

// SignOut ends the provider-side session. The identity toolkit has no
// server-side sign-out (ID tokens age out on their own), so this always
// succeeds; it exists so alternative providers can revoke refresh tokens.
func (c *Client) SignOut(ctx context.Context, uid string) error {
	return nil
}

// hydrate fills emailVerified (and missing profile fields) from a lookup,
// since sign-in responses omit the verification flag.
func (c *Client) hydrate(ctx context.Context, resp accountResponse) (Identity, error) {
	identity := Identity{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		PhotoURL:     resp.PhotoURL,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}
	if identity.PhotoURL == "" {
		identity.PhotoURL = resp.ProfilePicture
	}

	looked, err := c.Lookup(ctx, resp.IDToken)
	if err != nil {
		// The sign-in itself succeeded; report the identity unverified
		// rather than failing the whole flow.
		c.log.UpstreamError("idp", "lookup", err)
		return identity, nil
	}

	identity.EmailVerified = looked.EmailVerified
	if identity.DisplayName == "" {
		identity.DisplayName = looked.DisplayName
	}
	if identity.PhotoURL == "" {
		identity.PhotoURL = looked.PhotoURL
	}
	return identity, nil
}

func (c *Client) post(ctx context.Context, action string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.Internal("encode request", err).WithOp("idp." + action)
	}

	reqURL := fmt.Sprintf("%s/%s/%s?key=%s", c.baseURL, apiVersion, action, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return apperr.Internal("create request", err).WithOp("idp." + action)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.UpstreamError("idp", action, err)
		return apperr.Unavailable("identity provider unreachable", err).WithOp("idp." + action)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		c.log.UpstreamError("idp", action, fmt.Errorf("status %d", resp.StatusCode))
		return apperr.Unavailable("identity provider error", fmt.Errorf("status %d", resp.StatusCode)).WithOp("idp." + action)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return apperr.Wrap(apperr.KindUnknown, "identity provider rejected request", err).WithOp("idp." + action)
		}
		return translateProviderError(apiErr.Error.Message, action)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindUnknown, "decode response", err).WithOp("idp." + action)
	}
	return nil
}

// translateProviderError maps the provider's error codes 1:1 into the
// application taxonomy. Messages may carry suffixes
// (e.g. "WEAK_PASSWORD : Password should be..."), so match on the leading code.
func translateProviderError(message, action string) error {
	code := message
	if idx := strings.IndexAny(code, " :"); idx > 0 {
		code = code[:idx]
	}

	var err *apperr.Error
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL":
		err = apperr.InvalidCredentials("invalid email or password")
	case "EMAIL_EXISTS":
		err = apperr.Conflict("email already in use")
	case "WEAK_PASSWORD":
		err = apperr.Validation("password is too weak")
	case "USER_DISABLED":
		err = apperr.New(apperr.KindForbidden, "account disabled")
	case "INVALID_OOB_CODE", "EXPIRED_OOB_CODE":
		err = apperr.Validation("invalid or expired action code")
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		err = apperr.Unauthorized("session token invalid or expired")
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		err = apperr.Unavailable("too many attempts, try again later", nil)
	default:
		err = apperr.New(apperr.KindUnknown, message)
	}
	return err.WithOp("idp." + action)
}

var _ Provider = (*Client)(nil)
