package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/huntlog/internal/client/router"
)

var viewHints = map[string]string{
	router.PathHome:           "Your logbook. Commands: me, passwd, resend, status, logout.",
	router.PathLogin:          "Log in with 'login'. No account yet? 'register'. Lost your password? 'forgot'.",
	router.PathRegister:       "Create an account with 'register'.",
	router.PathForgotPassword: "Request a reset link with 'forgot'.",
	router.PathResetPassword:  "Set a new password with 'reset'.",
	router.PathVerifyEmail:    "Confirm your email address with 'verify'.",
}

// showView is the router listener: it prints the view the user landed on.
func (a *App) showView(loc router.Location) {
	if loc.Path == a.shownPath {
		return
	}
	a.shownPath = loc.Path

	title := loc.Path
	if rt, ok := a.nav.Route(loc.Path); ok && rt.Title != "" {
		title = rt.Title
	}
	fmt.Fprintf(a.out, "== %s ==\n", title)
	if hint := viewHints[loc.Path]; hint != "" {
		fmt.Fprintln(a.out, hint)
	}
}

// enter opens the view a command belongs to. The guards may send the user
// elsewhere, in which case the command does not run. Query parameters of
// the current location are kept when it is already the requested view.
func (a *App) enter(ctx context.Context, path string) (router.Location, bool) {
	cur := a.nav.Current()
	var params = cur.Params
	if cur.Path != path {
		params = nil
	}
	loc, err := a.nav.Navigate(ctx, path, params)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return router.Location{}, false
	}
	if loc.Path != path {
		fmt.Fprintf(a.out, "That is not available right now; you are at %s.\n", loc.Path)
		return loc, false
	}
	return loc, true
}

// Go navigates to target, e.g. "/reset-password?token=abc".
func (a *App) Go(ctx context.Context, target string) error {
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	loc, err := router.ParseLocation(target)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if _, err := a.nav.Navigate(ctx, loc.Path, loc.Params); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	return nil
}
