package auth

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const BearerPrefix = "Bearer "

var ErrInvalidToken = errors.New("invalid bearer token")

type tokenClaims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// BearerAuthEngine verifies JWT bearer tokens signed by an external issuer
// and exposes their "permissions" claim.
type BearerAuthEngine struct {
	key     crypto.PublicKey
	methods []string
}

// NormalizePEM turns literal "\n" sequences into newlines, which is how
// multi-line keys usually arrive through environment variables.
func NormalizePEM(pem string) string {
	return strings.ReplaceAll(strings.TrimSpace(pem), `\n`, "\n")
}

// NewBearerAuthEngine creates a BearerAuthEngine from a PEM encoded RSA,
// ECDSA or Ed25519 public key.
func NewBearerAuthEngine(publicKeyPEM string) (*BearerAuthEngine, error) {
	pem := []byte(NormalizePEM(publicKeyPEM))
	if len(pem) == 0 {
		return nil, errors.New("public key must not be empty")
	}

	if key, err := jwt.ParseRSAPublicKeyFromPEM(pem); err == nil {
		return &BearerAuthEngine{key: key, methods: []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512"}}, nil
	}

	if key, err := jwt.ParseECPublicKeyFromPEM(pem); err == nil {
		return &BearerAuthEngine{key: key, methods: []string{"ES256", "ES384", "ES512"}}, nil
	}

	if key, err := jwt.ParseEdPublicKeyFromPEM(pem); err == nil {
		return &BearerAuthEngine{key: key, methods: []string{"EdDSA"}}, nil
	}

	return nil, errors.New("unsupported public key: expected RSA, ECDSA or Ed25519 PEM")
}

// AuthenticateRequest validates the Authorization header. Requests without a
// bearer token yield nil claims and no error.
func (e *BearerAuthEngine) AuthenticateRequest(ctx context.Context, r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return nil, nil
	}

	raw := strings.TrimSpace(header[len(BearerPrefix):])
	if raw == "" {
		return nil, ErrInvalidToken
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(raw, &tc, func(*jwt.Token) (any, error) {
		return e.key, nil
	}, jwt.WithValidMethods(e.methods), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return &Claims{
		Subject:     tc.Subject,
		Permissions: tc.Permissions,
	}, nil
}
