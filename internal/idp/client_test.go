package idp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"barberia_backend/platform/apperr"
	"barberia_backend/platform/logger"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetIdentityProviderBaseURL() string      { return c.baseURL }
func (c testConfig) GetIdentityProviderAPIKey() string       { return "test-key" }
func (c testConfig) GetIdentityProviderTimeout() time.Duration { return 2 * time.Second }

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(testConfig{baseURL: srv.URL}, logger.New("development"))
}

func providerError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{"code": status, "message": code},
	})
}

func TestSignInHydratesEmailVerified(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "signInWithPassword"):
			if r.URL.Query().Get("key") != "test-key" {
				t.Errorf("missing api key, url = %s", r.URL.String())
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"localId": "uid-1",
				"email":   "ana@example.com",
				"idToken": "tok-1",
			})
		case strings.Contains(r.URL.Path, "lookup"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"users": []map[string]interface{}{{
					"localId":       "uid-1",
					"email":         "ana@example.com",
					"displayName":   "Ana",
					"emailVerified": true,
				}},
			})
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	identity, err := client.SignIn(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if identity.UID != "uid-1" || identity.IDToken != "tok-1" {
		t.Fatalf("identity = %#v", identity)
	}
	if !identity.EmailVerified {
		t.Fatal("emailVerified not hydrated from lookup")
	}
	if identity.DisplayName != "Ana" {
		t.Fatalf("displayName = %q, want filled from lookup", identity.DisplayName)
	}
}

func TestSignInTranslatesBadCredentials(t *testing.T) {
	codes := []string{"EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS"}
	for _, code := range codes {
		code := code
		t.Run(code, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				providerError(w, http.StatusBadRequest, code)
			}))

			_, err := client.SignIn(context.Background(), "ana@example.com", "wrong")
			if !apperr.Is(err, apperr.KindInvalidCredentials) {
				t.Fatalf("err = %v, want invalid_credentials", err)
			}
		})
	}
}

func TestSignUpTranslatesConflictAndWeakPassword(t *testing.T) {
	tests := []struct {
		code string
		want apperr.Kind
	}{
		{"EMAIL_EXISTS", apperr.KindConflict},
		{"WEAK_PASSWORD : Password should be at least 6 characters", apperr.KindValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.code, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				providerError(w, http.StatusBadRequest, tt.code)
			}))

			_, err := client.SignUp(context.Background(), "ana@example.com", "123")
			if apperr.GetKind(err) != tt.want {
				t.Fatalf("err = %v, want kind %v", err, tt.want)
			}
		})
	}
}

func TestServerErrorsMapToUnavailable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.SignIn(context.Background(), "ana@example.com", "secret")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
}

func TestUnreachableProviderMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := New(testConfig{baseURL: srv.URL}, logger.New("development"))
	err := client.DeleteAccount(context.Background(), "tok-1")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
}

func TestDeleteAccountHitsDeleteEndpoint(t *testing.T) {
	var called bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "accounts:delete") {
			called = true
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("{}"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	if err := client.DeleteAccount(context.Background(), "tok-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !called {
		t.Fatal("accounts:delete not called")
	}
}

func TestExpiredTokenMapsToUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		providerError(w, http.StatusBadRequest, "TOKEN_EXPIRED")
	}))

	err := client.DeleteAccount(context.Background(), "stale")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}
