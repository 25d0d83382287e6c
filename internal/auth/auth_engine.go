package auth

import (
	"context"
	"net/http"
	"slices"
)

// PermissionAddAsset allows the caller to upload assets.
const PermissionAddAsset = "add asset"

// Claims is the verified identity attached to a request.
type Claims struct {
	Subject     string
	Permissions []string
}

// Has reports whether the claims grant permission.
func (c *Claims) Has(permission string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Permissions, permission)
}

type AuthEngine interface {

	// AuthenticateRequest inspects the given HTTP request for valid
	// credentials. It returns nil claims and a nil error when the request
	// carries no credentials at all, and an error when the credentials are
	// present but invalid.
	AuthenticateRequest(ctx context.Context, rq *http.Request) (*Claims, error)
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}
