package router

import "net/url"

const (
	PathHome           = "/"
	PathLogin          = "/login"
	PathRegister       = "/register"
	PathForgotPassword = "/forgot-password"
	PathResetPassword  = "/reset-password"
	PathVerifyEmail    = "/verify-email"

	// RedirectParam carries the originally requested path through login.
	RedirectParam = "redirect"
)

// GuardResult is the outcome of a guard: proceed to the requested view or
// go somewhere else instead.
type GuardResult struct {
	redirect bool
	target   Location
}

func Proceed() GuardResult { return GuardResult{} }

func RedirectTo(path string, params url.Values) GuardResult {
	return GuardResult{redirect: true, target: Location{Path: path, Params: params}}
}

func (g GuardResult) IsRedirect() bool { return g.redirect }

// Target is the redirect destination; zero for Proceed.
func (g GuardResult) Target() Location { return g.target }

// AuthReader exposes the one bit of session state guards look at.
type AuthReader interface {
	IsAuthenticated() bool
}

// Guard runs before a view is built. It must not block or mutate state.
type Guard func(requested Location) GuardResult

// RequireAuthenticated sends anonymous users to the login view, remembering
// the requested path so they can be brought back after logging in.
func RequireAuthenticated(reader AuthReader) Guard {
	return func(requested Location) GuardResult {
		if reader.IsAuthenticated() {
			return Proceed()
		}
		return RedirectTo(PathLogin, url.Values{RedirectParam: {requested.Path}})
	}
}

// RedirectIfAuthenticated keeps logged-in users away from the anonymous-only
// views.
func RedirectIfAuthenticated(reader AuthReader) Guard {
	return func(Location) GuardResult {
		if reader.IsAuthenticated() {
			return RedirectTo(PathHome, nil)
		}
		return Proceed()
	}
}

// ReturnTarget extracts the post-login destination from params. Only
// absolute paths inside the app are accepted.
func ReturnTarget(params url.Values) (string, bool) {
	target := params.Get(RedirectParam)
	if target == "" || target[0] != '/' || len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return "", false
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	return u.Path, true
}
