package auth

import (
	"context"
	"encoding/pem"
	"errors"
	"net/http"
	"strings"
)

type CompoundAuthEngine struct {
	engines []AuthEngine
}

// NewCompoundAuthEngine creates a new CompoundAuthEngine with the given AuthEngines.
func NewCompoundAuthEngine(engines ...AuthEngine) *CompoundAuthEngine {
	return &CompoundAuthEngine{
		engines: engines,
	}
}

// AuthenticateRequest returns the claims of the first engine that accepts the
// request. If none does, the first error reported is returned, or nil claims
// and a nil error when no engine found any credentials.
func (e *CompoundAuthEngine) AuthenticateRequest(ctx context.Context, r *http.Request) (*Claims, error) {
	var firstErr error

	for _, engine := range e.engines {
		claims, err := engine.AuthenticateRequest(ctx, r)
		if claims != nil && err == nil {
			return claims, nil
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return nil, firstErr
}

// NewKeySetAuthEngine accepts one or more concatenated PEM public keys and
// returns an engine that verifies tokens signed by any of them. A single key
// yields a plain BearerAuthEngine.
func NewKeySetAuthEngine(publicKeysPEM string) (AuthEngine, error) {
	rest := []byte(NormalizePEM(publicKeysPEM))

	var engines []AuthEngine
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		engine, err := NewBearerAuthEngine(string(pem.EncodeToMemory(block)))
		if err != nil {
			return nil, err
		}
		engines = append(engines, engine)
	}

	switch {
	case len(engines) == 0:
		return nil, errors.New("no PEM public key found")
	case strings.TrimSpace(string(rest)) != "":
		return nil, errors.New("trailing data after PEM public keys")
	case len(engines) == 1:
		return engines[0], nil
	default:
		return NewCompoundAuthEngine(engines...), nil
	}
}
