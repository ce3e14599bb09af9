package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/campushub/internal/common"
)

// RevocationChecker answers whether decoded claims were revoked. *Issuer
// implements it.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, claims *Claims) (bool, error)
}

// Gate makes the single authentication decision for a request.
type Gate struct {
	codec       *Codec
	revocations RevocationChecker
}

func NewGate(codec *Codec, revocations RevocationChecker) *Gate {
	return &Gate{codec: codec, revocations: revocations}
}

// Authenticate evaluates an Authorization header value.
//
// A missing or non-bearer header yields (nil, nil): the request stays
// unauthenticated and route guards decide. A bearer token that is forged,
// malformed, not an access token, expired or revoked yields an error
// matching ErrInvalidToken, ErrTokenExpired or ErrTokenRevoked. A failing
// revocation lookup yields ErrorUnavailable.
func (g *Gate) Authenticate(ctx context.Context, authorization string) (*Identity, error) {
	token, ok := BearerToken(authorization)
	if !ok {
		return nil, nil
	}

	claims, err := g.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("%w: not an access token", common.ErrInvalidToken)
	}
	if g.codec.IsExpired(claims) {
		return nil, common.ErrTokenExpired
	}

	revoked, err := g.revocations.IsRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}

	return claims.Identity(), nil
}

// BearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func BearerToken(authorization string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(authorization), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity binds id to ctx for the rest of the request.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity bound by WithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}
