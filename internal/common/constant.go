// Package common contains constants and small helpers shared by the huntlog
// client and the development backend.
package common

// AuthorizationHeaderName carries the bearer credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is prepended to the access token in the Authorization header.
const BearerPrefix = "Bearer "

// RequestIDHeaderName correlates client requests with backend log lines.
const RequestIDHeaderName = "X-Request-ID"

// Durable storage keys. The two token entries are kept alongside the
// serialized session snapshot so they can be read without decoding the blob.
const (
	AccessTokenStorageKey  = "access_token"
	RefreshTokenStorageKey = "refresh_token"
	SessionStorageKey      = "auth-storage"
)

// DefaultAPIBaseURL is used when no base URL is configured.
const DefaultAPIBaseURL = "http://localhost:8080/api/v1"
