package roles

import (
	"context"
	"encoding/json"

	"barberia_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
)

// CacheReader is the read side of the role cache consumed by the resolver.
type CacheReader interface {
	Get(ctx context.Context, email string) (RoleID, bool)
}

// Resolver computes the effective application role. Priority chain, first
// match wins: explicit caller value, cached role for the email, claims from
// the provider ID token, default Cliente. Pure given its inputs; the cache is
// read-only here.
type Resolver struct {
	cache CacheReader
	log   *logger.Logger
}

// NewResolver creates a role resolver backed by the given cache.
func NewResolver(cache CacheReader, log *logger.Logger) *Resolver {
	return &Resolver{cache: cache, log: log}
}

// Resolve returns the effective role for the identity.
func (r *Resolver) Resolve(ctx context.Context, explicit *RoleID, email, idToken string) RoleID {
	if explicit != nil && explicit.Valid() {
		return *explicit
	}

	if r.cache != nil && email != "" {
		if role, ok := r.cache.Get(ctx, email); ok {
			return role
		}
	}

	if role, ok := FromClaims(idToken); ok {
		return role
	}

	return DefaultRole
}

// claimExtractor attempts to derive a role from token claims.
type claimExtractor func(jwt.MapClaims) (RoleID, bool)

// Extractors are tried in order; the first match wins. The ordered list
// replaces ad-hoc property probing so the priority is explicit and testable.
var claimExtractors = []claimExtractor{
	extractAdminFlag,
	extractNamedClaim("role"),
	extractNamedClaim("rol"),
	extractNamedClaim("roleId"),
	extractNamedClaim("rol_id"),
}

// FromClaims derives a role from the provider ID token's custom claims.
// The token was issued to us by the provider over TLS moments earlier, so it
// is parsed without signature verification.
func FromClaims(idToken string) (RoleID, bool) {
	if idToken == "" {
		return 0, false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return 0, false
	}

	for _, extract := range claimExtractors {
		if role, ok := extract(claims); ok {
			return role, true
		}
	}
	return 0, false
}

func extractAdminFlag(claims jwt.MapClaims) (RoleID, bool) {
	if isAdmin, ok := claims["admin"].(bool); ok && isAdmin {
		return RoleAdmin, true
	}
	return 0, false
}

func extractNamedClaim(name string) claimExtractor {
	return func(claims jwt.MapClaims) (RoleID, bool) {
		value, ok := claims[name]
		if !ok {
			return 0, false
		}
		return normalizeClaimValue(value)
	}
}

// normalizeClaimValue accepts the string and numeric shapes role claims show
// up in ("1", 1, 1.0, "admin", "administrador").
func normalizeClaimValue(value interface{}) (RoleID, bool) {
	switch typed := value.(type) {
	case string:
		return FromName(typed)
	case float64:
		return FromInt(int(typed))
	case int:
		return FromInt(typed)
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return FromInt(int(n))
		}
	}
	return 0, false
}
