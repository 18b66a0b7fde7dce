// Package services contains application services for the huntlog client.
// This file defines the authentication service: it binds the auth API to
// the session store, the router and the query cache.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/huntlog/internal/client/api"
	"github.com/dmitrijs2005/huntlog/internal/client/cache"
	"github.com/dmitrijs2005/huntlog/internal/client/client"
	"github.com/dmitrijs2005/huntlog/internal/client/forms"
	"github.com/dmitrijs2005/huntlog/internal/client/router"
	"github.com/dmitrijs2005/huntlog/internal/client/session"
	"github.com/dmitrijs2005/huntlog/internal/logging"
)

// CurrentUserKey is the query cache key of the current-user lookup.
const CurrentUserKey = "currentUser"

// DefaultCurrentUserStaleTime is how long a fetched user record is reused.
const DefaultCurrentUserStaleTime = 5 * time.Minute

// AuthAPI is the backend surface the service needs. *api.AuthAPI
// implements it.
type AuthAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	RequestPasswordReset(ctx context.Context, req api.ForgotPasswordRequest) (*api.MessageResponse, error)
	ResetPassword(ctx context.Context, req api.ResetPasswordRequest) (*api.MessageResponse, error)
	VerifyEmail(ctx context.Context, req api.VerifyEmailRequest) (*api.MessageResponse, error)
	ChangePassword(ctx context.Context, req api.ChangePasswordRequest) (*api.MessageResponse, error)
	FetchCurrentUser(ctx context.Context) (*api.User, error)
	ResendVerificationEmail(ctx context.Context) (*api.MessageResponse, error)
}

// Navigator moves the view layer. *router.Router implements it.
type Navigator interface {
	Navigate(ctx context.Context, path string, params url.Values) (router.Location, error)
	Current() router.Location
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: validate, authenticate, populate the session, go to the return
//     target or the dashboard.
//   - Logout: end the server session, tear down the local one, go to login.
//   - Register, ResetPassword, VerifyEmail: one-shot; on success go to login
//     without populating the session.
//   - RequestPasswordReset, ChangePassword, ResendVerificationEmail: no
//     navigation.
//   - CurrentUser: cached lookup, only while authenticated.
//   - HandleSessionExpired: called by the HTTP client after a failed refresh.
type AuthService interface {
	Login(ctx context.Context, form forms.LoginForm) (*session.User, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, form forms.RegisterForm) (*api.RegisterResponse, error)
	RequestPasswordReset(ctx context.Context, form forms.ForgotPasswordForm) (*api.MessageResponse, error)
	ResetPassword(ctx context.Context, form forms.ResetPasswordForm) (*api.MessageResponse, error)
	VerifyEmail(ctx context.Context, token string) (*api.MessageResponse, error)
	ChangePassword(ctx context.Context, form forms.ChangePasswordForm) (*api.MessageResponse, error)
	ResendVerificationEmail(ctx context.Context) (*api.MessageResponse, error)
	CurrentUser(ctx context.Context) (*session.User, error)
	HandleSessionExpired(ctx context.Context)
}

type authService struct {
	api       AuthAPI
	store     *session.Store
	nav       Navigator
	cache     *cache.QueryCache
	logger    logging.Logger
	staleTime time.Duration
}

// NewAuthService wires the service. A zero staleTime falls back to
// DefaultCurrentUserStaleTime.
func NewAuthService(authAPI AuthAPI, store *session.Store, nav Navigator, qc *cache.QueryCache, logger logging.Logger, staleTime time.Duration) AuthService {
	if logger == nil {
		logger = logging.Discard()
	}
	if staleTime <= 0 {
		staleTime = DefaultCurrentUserStaleTime
	}
	return &authService{api: authAPI, store: store, nav: nav, cache: qc, logger: logger, staleTime: staleTime}
}

func (a *authService) loading() func() {
	a.store.SetLoading(true)
	return func() { a.store.SetLoading(false) }
}

func (a *authService) navigate(ctx context.Context, path string, params url.Values) {
	if _, err := a.nav.Navigate(ctx, path, params); err != nil {
		a.logger.Warn(ctx, "navigation failed", "path", path, "error", err)
	}
}

// Login authenticates and populates the session. A failed attempt leaves
// the session as it was.
func (a *authService) Login(ctx context.Context, form forms.LoginForm) (*session.User, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	defer a.loading()()

	a.store.BeginAuthentication()
	resp, err := a.api.Login(ctx, form.Request())
	if err != nil {
		a.store.AbortAuthentication()
		return nil, fmt.Errorf("login error: %w", forms.FromAPIError(err))
	}
	if err := a.store.SetAuth(ctx, resp.User, resp.AccessToken, resp.RefreshToken); err != nil {
		a.store.AbortAuthentication()
		return nil, fmt.Errorf("login error: %w", err)
	}
	a.cache.Clear()
	a.logger.Info(ctx, "logged in", "user_id", userID(resp.User))

	target := router.PathHome
	if t, ok := router.ReturnTarget(a.nav.Current().Params); ok {
		target = t
	}
	a.navigate(ctx, target, nil)
	return resp.User.Clone(), nil
}

// Logout ends the session on the server first. If the server already
// considers the session gone, the local teardown still happens.
func (a *authService) Logout(ctx context.Context) error {
	defer a.loading()()

	if err := a.api.Logout(ctx); err != nil && !errors.Is(err, client.ErrAuthExpired) {
		return fmt.Errorf("logout error: %w", err)
	}
	err := a.store.Clear(ctx)
	a.cache.Clear()
	a.navigate(ctx, router.PathLogin, nil)
	if err != nil {
		return fmt.Errorf("logout error: %w", err)
	}
	a.logger.Info(ctx, "logged out")
	return nil
}

func (a *authService) Register(ctx context.Context, form forms.RegisterForm) (*api.RegisterResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	defer a.loading()()

	resp, err := a.api.Register(ctx, form.Request())
	if err != nil {
		return nil, forms.FromAPIError(err)
	}
	a.navigate(ctx, router.PathLogin, nil)
	return resp, nil
}

func (a *authService) RequestPasswordReset(ctx context.Context, form forms.ForgotPasswordForm) (*api.MessageResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	defer a.loading()()

	resp, err := a.api.RequestPasswordReset(ctx, form.Request())
	if err != nil {
		return nil, forms.FromAPIError(err)
	}
	return resp, nil
}

func (a *authService) ResetPassword(ctx context.Context, form forms.ResetPasswordForm) (*api.MessageResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	defer a.loading()()

	resp, err := a.api.ResetPassword(ctx, form.Request())
	if err != nil {
		return nil, forms.FromAPIError(err)
	}
	a.navigate(ctx, router.PathLogin, nil)
	return resp, nil
}

func (a *authService) VerifyEmail(ctx context.Context, token string) (*api.MessageResponse, error) {
	if token == "" {
		return nil, &forms.ValidationError{Fields: map[string]string{"token": "cannot be blank"}}
	}
	defer a.loading()()

	resp, err := a.api.VerifyEmail(ctx, api.VerifyEmailRequest{Token: token})
	if err != nil {
		return nil, forms.FromAPIError(err)
	}
	a.navigate(ctx, router.PathLogin, nil)
	return resp, nil
}

func (a *authService) ChangePassword(ctx context.Context, form forms.ChangePasswordForm) (*api.MessageResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	defer a.loading()()

	resp, err := a.api.ChangePassword(ctx, form.Request())
	if err != nil {
		return nil, forms.FromAPIError(err)
	}
	return resp, nil
}

func (a *authService) ResendVerificationEmail(ctx context.Context) (*api.MessageResponse, error) {
	defer a.loading()()
	return a.api.ResendVerificationEmail(ctx)
}

// CurrentUser returns the signed-in user, fetching it at most once per
// stale period. Anonymous sessions get session.ErrNotAuthenticated without
// a request being made, and so does a session torn down mid-fetch.
func (a *authService) CurrentUser(ctx context.Context) (*session.User, error) {
	if !a.store.IsAuthenticated() {
		return nil, session.ErrNotAuthenticated
	}
	v, err := a.cache.Fetch(ctx, CurrentUserKey, a.staleTime, func(ctx context.Context) (any, error) {
		u, err := a.api.FetchCurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		if err := a.store.SetUser(ctx, u); err != nil {
			if errors.Is(err, session.ErrNotAuthenticated) {
				return nil, err
			}
			a.logger.Warn(ctx, "failed to store current user", "error", err)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	if !a.store.IsAuthenticated() {
		return nil, session.ErrNotAuthenticated
	}
	return v.(*session.User).Clone(), nil
}

// HandleSessionExpired runs after the HTTP client has cleared the session.
// A rejection while already on the login view keeps its return target.
func (a *authService) HandleSessionExpired(ctx context.Context) {
	a.cache.Clear()
	a.logger.Info(ctx, "session expired, login required")

	var params url.Values
	switch cur := a.nav.Current(); cur.Path {
	case "":
	case router.PathLogin:
		params = cur.Params
	default:
		params = url.Values{router.RedirectParam: {cur.Path}}
	}
	a.navigate(ctx, router.PathLogin, params)
}

func userID(u *session.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
