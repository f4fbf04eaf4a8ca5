// Package common contains shared constants and small helpers used across
// the Draped client packages.
package common

const (
	// AuthorizationHeaderName carries the bearer access token.
	AuthorizationHeaderName = "Authorization"
	// BearerScheme prefixes the access token in the Authorization header.
	BearerScheme = "Bearer"
	// RequestIDHeaderName correlates client logs with server logs.
	RequestIDHeaderName = "X-Request-ID"

	// APIPrefix is the versioned root of every remote endpoint.
	APIPrefix = "/api/v1"
)
