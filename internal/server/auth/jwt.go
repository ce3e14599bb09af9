// Package auth implements stateless authentication: signing and verifying
// access/refresh JWTs, issuing and revoking token pairs, and the per-request
// authentication gate shared by the REST and gRPC transports.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// Principal is who a token is about, before any timestamps are attached.
type Principal struct {
	Subject string
	Role    Role
}

// Identity is the authenticated caller bound to a request.
type Identity struct {
	Principal
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the signed claim set. The registered iat/exp claims have second
// precision, so the issue instant is also carried in milliseconds for
// revocation checks.
type Claims struct {
	jwt.RegisteredClaims
	Role       Role      `json:"role,omitempty"`
	TokenType  TokenType `json:"typ"`
	IssuedAtMs int64     `json:"iat_ms"`
}

// IssuedAtTime is the millisecond-precision issue instant.
func (c *Claims) IssuedAtTime() time.Time {
	return time.UnixMilli(c.IssuedAtMs)
}

// Identity projects the claims onto the request identity.
func (c *Claims) Identity() *Identity {
	return &Identity{
		Principal: Principal{Subject: c.Subject, Role: c.Role},
		IssuedAt:  c.IssuedAtTime(),
		ExpiresAt: c.ExpiresAt.Time,
	}
}

// Codec signs and verifies tokens with a process-wide HMAC secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

func NewCodec(secretKey []byte, opts ...CodecOption) *Codec {
	c := &Codec{secret: secretKey, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now is the codec's clock.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Encode signs a token for p that expires ttl from now.
func (c *Codec) Encode(p Principal, tokenType TokenType, ttl time.Duration) (string, error) {
	now := c.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:       p.Role,
		TokenType:  tokenType,
		IssuedAtMs: now.UnixMilli(),
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Decode verifies the signature and structure of tokenString. Expiry is not
// checked here; use IsExpired so callers can tell forged from stale.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.ExpiresAt == nil || claims.IssuedAtMs <= 0 || !claims.TokenType.Valid() {
		return nil, fmt.Errorf("%w: missing required claims", common.ErrInvalidToken)
	}

	return claims, nil
}

// IsExpired reports whether claims are past their expiry.
func (c *Codec) IsExpired(claims *Claims) bool {
	return !c.now().Before(claims.ExpiresAt.Time)
}
