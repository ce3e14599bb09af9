// Package common contains shared constants and sentinel errors used across
// CampusHub components.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key carrying
// the bearer access token.
const AuthorizationHeaderName = "authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// RequestIDHeaderName is echoed on every REST response.
const RequestIDHeaderName = "X-Request-ID"
