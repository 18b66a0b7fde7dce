// Package api maps each backend auth endpoint to a typed Go call.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/huntlog/internal/common"
)

const (
	PathLogin              = "/auth/login"
	PathLogout             = "/auth/logout"
	PathRegister           = "/auth/register"
	PathRefresh            = "/auth/refresh"
	PathForgotPassword     = "/auth/forgot-password"
	PathResetPassword      = "/auth/reset-password"
	PathVerifyEmail        = "/auth/verify-email"
	PathChangePassword     = "/auth/change-password"
	PathMe                 = "/auth/me"
	PathResendVerification = "/auth/resend-verification"
)

// Doer sends one JSON request. *client.HTTPClient implements it.
type Doer interface {
	Do(ctx context.Context, method, path string, in, out any) error
}

// TokenCleaner removes entries from durable client storage.
// metadata.Repository implements it.
type TokenCleaner interface {
	DeleteMany(ctx context.Context, keys ...string) error
}

type AuthAPI struct {
	doer   Doer
	tokens TokenCleaner
}

func NewAuthAPI(doer Doer, tokens TokenCleaner) *AuthAPI {
	return &AuthAPI{doer: doer, tokens: tokens}
}

func (a *AuthAPI) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := a.doer.Do(ctx, http.MethodPost, PathLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout waits for the server to end the session, then drops the stored
// token entries. A failed server call leaves them in place.
func (a *AuthAPI) Logout(ctx context.Context) error {
	if err := a.doer.Do(ctx, http.MethodPost, PathLogout, nil, nil); err != nil {
		return err
	}
	if a.tokens == nil {
		return nil
	}
	if err := a.tokens.DeleteMany(ctx, common.AccessTokenStorageKey, common.RefreshTokenStorageKey); err != nil {
		return fmt.Errorf("remove stored tokens: %w", err)
	}
	return nil
}

func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := a.doer.Do(ctx, http.MethodPost, PathRegister, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshAccessToken exchanges a refresh token explicitly. The HTTP client
// refreshes on its own when a call fails with 401; this is for callers that
// want to renew ahead of time.
func (a *AuthAPI) RefreshAccessToken(ctx context.Context, req RefreshTokenRequest) (*RefreshTokenResponse, error) {
	var out RefreshTokenResponse
	if err := a.doer.Do(ctx, http.MethodPost, PathRefresh, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	return a.message(ctx, PathForgotPassword, req)
}

func (a *AuthAPI) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	return a.message(ctx, PathResetPassword, req)
}

func (a *AuthAPI) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*MessageResponse, error) {
	return a.message(ctx, PathVerifyEmail, req)
}

func (a *AuthAPI) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*MessageResponse, error) {
	return a.message(ctx, PathChangePassword, req)
}

func (a *AuthAPI) FetchCurrentUser(ctx context.Context) (*User, error) {
	var out User
	if err := a.doer.Do(ctx, http.MethodGet, PathMe, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) ResendVerificationEmail(ctx context.Context) (*MessageResponse, error) {
	return a.message(ctx, PathResendVerification, nil)
}

func (a *AuthAPI) message(ctx context.Context, path string, in any) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.doer.Do(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
