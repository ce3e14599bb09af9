package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/campushub/internal/common"
)

// RevocationStore persists per-subject revocation markers with a TTL.
type RevocationStore interface {
	MarkRevoked(ctx context.Context, subject string, at time.Time, ttl time.Duration) error
	RevokedAt(ctx context.Context, subject string) (time.Time, bool, error)
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer mints token pairs, exchanges refresh tokens and revokes subjects.
//
// Refresh tokens are not rotated on use and revocation is per subject: a
// logout invalidates every token issued to that subject before it.
type Issuer struct {
	codec      *Codec
	store      RevocationStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *Codec, store RevocationStore, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		store:      store,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue signs a fresh access/refresh pair for p.
func (i *Issuer) Issue(p Principal) (*TokenPair, error) {
	access, err := i.codec.Encode(p, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.codec.Encode(p, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token bound to
// the same subject. It fails with ErrInvalidToken, ErrTokenExpired or
// ErrTokenRevoked, in that order of checking.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := i.codec.Decode(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", fmt.Errorf("%w: not a refresh token", common.ErrInvalidToken)
	}
	if i.codec.IsExpired(claims) {
		return "", common.ErrTokenExpired
	}

	revoked, err := i.IsRevoked(ctx, claims)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", common.ErrTokenRevoked
	}

	return i.codec.Encode(Principal{Subject: claims.Subject, Role: claims.Role}, TokenTypeAccess, i.accessTTL)
}

// Revoke records that every token issued to subject up to now is invalid.
// The marker outlives the longest refresh token that could still be in use.
func (i *Issuer) Revoke(ctx context.Context, subject string) error {
	if err := i.store.MarkRevoked(ctx, subject, i.codec.Now(), i.refreshTTL); err != nil {
		return fmt.Errorf("%w: mark revoked: %v", common.ErrorUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether the subject logged out at or after the moment
// claims were issued.
func (i *Issuer) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	at, ok, err := i.store.RevokedAt(ctx, claims.Subject)
	if err != nil {
		return false, fmt.Errorf("%w: revocation lookup: %v", common.ErrorUnavailable, err)
	}
	if !ok {
		return false, nil
	}
	return !claims.IssuedAtTime().After(at), nil
}
