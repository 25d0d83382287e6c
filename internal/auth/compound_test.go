package auth_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"assetgate/internal/auth"
)

type fixedEngine struct {
	claims *auth.Claims
	err    error
}

func (f fixedEngine) AuthenticateRequest(ctx context.Context, r *http.Request) (*auth.Claims, error) {
	return f.claims, f.err
}

func TestCompoundAuthEngine(t *testing.T) {
	t.Parallel()

	errA := errors.New("a")
	errB := errors.New("b")
	alice := &auth.Claims{Subject: "alice"}

	tests := []struct {
		name    string
		engines []auth.AuthEngine
		want    *auth.Claims
		wantErr error
	}{
		{name: "no engines"},
		{name: "anonymous", engines: []auth.AuthEngine{fixedEngine{}, fixedEngine{}}},
		{name: "later engine accepts", engines: []auth.AuthEngine{fixedEngine{err: errA}, fixedEngine{claims: alice}}, want: alice},
		{name: "first error wins", engines: []auth.AuthEngine{fixedEngine{}, fixedEngine{err: errA}, fixedEngine{err: errB}}, wantErr: errA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := auth.NewCompoundAuthEngine(tt.engines...).AuthenticateRequest(t.Context(), requestWithToken(t, ""))
			require.Equal(t, tt.want, claims)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestKeySetAuthEngineRotation(t *testing.T) {
	t.Parallel()

	oldKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	newKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	bundle := publicPEM(t, &oldKey.PublicKey) + publicPEM(t, &newKey.PublicKey)
	e, err := auth.NewKeySetAuthEngine(bundle)
	require.NoError(t, err)
	require.IsType(t, &auth.CompoundAuthEngine{}, e)

	for _, token := range []string{
		sign(t, jwt.SigningMethodRS256, oldKey, validClaims(auth.PermissionAddAsset)),
		sign(t, jwt.SigningMethodES256, newKey, validClaims(auth.PermissionAddAsset)),
	} {
		claims, err := e.AuthenticateRequest(t.Context(), requestWithToken(t, token))
		require.NoError(t, err)
		require.True(t, claims.Has(auth.PermissionAddAsset))
	}

	_, err = e.AuthenticateRequest(t.Context(), requestWithToken(t, sign(t, jwt.SigningMethodRS256, otherKey, validClaims())))
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	single, err := auth.NewKeySetAuthEngine(publicPEM(t, &oldKey.PublicKey))
	require.NoError(t, err)
	require.IsType(t, &auth.BearerAuthEngine{}, single)

	_, err = auth.NewKeySetAuthEngine("not a key")
	require.Error(t, err)

	_, err = auth.NewKeySetAuthEngine(publicPEM(t, &oldKey.PublicKey) + "garbage")
	require.Error(t, err)
}
