package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/huntlog/internal/client/client"
	"github.com/dmitrijs2005/huntlog/internal/client/forms"
	"github.com/dmitrijs2005/huntlog/internal/client/router"
	"github.com/dmitrijs2005/huntlog/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// now is swapped in tests.
var now = time.Now

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

// askPassword reads a password and returns it as a string. The raw input
// buffer is wiped before returning.
func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// report prints err in a form suited to the terminal and returns it.
func (a *App) report(err error) error {
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintln(a.out, "Please fix the following:")
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(a.out, "  %s: %s\n", name, verr.Fields[name])
		}
	case errors.Is(err, client.ErrAuthExpired):
		fmt.Fprintln(a.out, "Not logged in:", apiMessage(err))
	case errors.Is(err, client.ErrConflict):
		fmt.Fprintln(a.out, "Conflict:", apiMessage(err))
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later.")
		a.logger.Warn(context.Background(), "request failed", "error", err)
	default:
		fmt.Fprintln(a.out, "Error:", apiMessage(err))
	}
	return err
}

func apiMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// Login prompts for credentials and authenticates. On success the router
// moves on to the return target or the dashboard.
func (a *App) Login(ctx context.Context) error {
	if _, ok := a.enter(ctx, router.PathLogin); !ok {
		return nil
	}
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}

	u, err := a.authService.Login(ctx, forms.LoginForm{Email: email, Password: password})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", u.Username)
	return nil
}

// Register creates an account. The user still has to verify the email
// address and log in afterwards.
func (a *App) Register(ctx context.Context) error {
	if _, ok := a.enter(ctx, router.PathRegister); !ok {
		return nil
	}
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	username, err := a.ask("Enter username")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}
	confirm, err := a.askPassword("Repeat password")
	if err != nil {
		return err
	}

	resp, err := a.authService.Register(ctx, forms.RegisterForm{
		Email: email, Username: username, Password: password, ConfirmPassword: confirm,
	})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Success!", resp.Message)
	return nil
}

func (a *App) Forgot(ctx context.Context) error {
	if _, ok := a.enter(ctx, router.PathForgotPassword); !ok {
		return nil
	}
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	resp, err := a.authService.RequestPasswordReset(ctx, forms.ForgotPasswordForm{Email: email})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

// Reset sets a new password using the token from the reset link. The token
// is taken from the current location (go /reset-password?token=...) or
// asked for.
func (a *App) Reset(ctx context.Context) error {
	loc, ok := a.enter(ctx, router.PathResetPassword)
	if !ok {
		return nil
	}
	token := loc.Params.Get("token")
	if token == "" {
		var err error
		if token, err = a.ask("Enter reset token"); err != nil {
			return err
		}
	}
	password, err := a.askPassword("Enter new password")
	if err != nil {
		return err
	}
	confirm, err := a.askPassword("Repeat new password")
	if err != nil {
		return err
	}

	resp, err := a.authService.ResetPassword(ctx, forms.ResetPasswordForm{Token: token, Password: password, ConfirmPassword: confirm})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	loc, ok := a.enter(ctx, router.PathVerifyEmail)
	if !ok {
		return nil
	}
	token := loc.Params.Get("token")
	if token == "" {
		var err error
		if token, err = a.ask("Enter verification token"); err != nil {
			return err
		}
	}
	resp, err := a.authService.VerifyEmail(ctx, token)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func (a *App) Resend(ctx context.Context) error {
	if _, ok := a.enter(ctx, router.PathHome); !ok {
		return nil
	}
	resp, err := a.authService.ResendVerificationEmail(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if _, ok := a.enter(ctx, router.PathHome); !ok {
		return nil
	}
	u, err := a.authService.CurrentUser(ctx)
	if err != nil {
		return a.report(err)
	}
	verified := "not verified"
	if u.EmailVerified {
		verified = "verified"
	}
	fmt.Fprintf(a.out, "#%d %s <%s> (%s)\n", u.ID, u.Username, u.Email, verified)
	if len(u.Roles) > 0 {
		fmt.Fprintf(a.out, "roles: %v\n", u.Roles)
	}
	return nil
}

func (a *App) Passwd(ctx context.Context) error {
	if _, ok := a.enter(ctx, router.PathHome); !ok {
		return nil
	}
	current, err := a.askPassword("Current password")
	if err != nil {
		return err
	}
	next, err := a.askPassword("New password")
	if err != nil {
		return err
	}
	confirm, err := a.askPassword("Repeat new password")
	if err != nil {
		return err
	}
	resp, err := a.authService.ChangePassword(ctx, forms.ChangePasswordForm{
		CurrentPassword: current, NewPassword: next, ConfirmPassword: confirm,
	})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

// Status prints the session phase and, for JWT access tokens, when the
// current one expires. Nothing is sent to the server.
func (a *App) Status(ctx context.Context) error {
	s := a.store.Get()
	fmt.Fprintf(a.out, "session: %s\n", a.store.Phase())
	if s.User != nil && s.IsAuthenticated {
		fmt.Fprintf(a.out, "user: %s <%s>\n", s.User.Username, s.User.Email)
	}
	if s.AccessToken != "" {
		if exp, err := client.AccessTokenExpiry(s.AccessToken); err == nil {
			left := exp.Sub(now()).Round(time.Second)
			if left > 0 {
				fmt.Fprintf(a.out, "access token expires in %s\n", left)
			} else {
				fmt.Fprintln(a.out, "access token expired, it will be refreshed on the next request")
			}
		}
	}
	if a.config != nil {
		fmt.Fprintf(a.out, "api: %s, storage: %s\n", a.config.APIBaseURL, a.config.StorageBackend)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if _, ok := a.enter(ctx, router.PathHome); !ok {
		return nil
	}
	if err := a.authService.Logout(ctx); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

var _ execIface = (*App)(nil)
