// Package users holds devapi's accounts, credentials and issued tokens.
package users

import "time"

type User struct {
	ID            int64
	Email         string
	Username      string
	PasswordHash  []byte
	EmailVerified bool
	Roles         []string
	CreatedAt     time.Time
}

// TokenKind tells apart the opaque tokens devapi issues.
type TokenKind string

const (
	TokenRefresh       TokenKind = "refresh"
	TokenPasswordReset TokenKind = "password_reset"
	TokenVerifyEmail   TokenKind = "verify_email"
)

// Token is an opaque server-side token record.
type Token struct {
	Kind    TokenKind
	UserID  int64
	Expires time.Time
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
