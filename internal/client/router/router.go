// Package router resolves view paths through route guards. Guards run
// synchronously against the current session before any view is built.
package router

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/huntlog/internal/logging"
)

// MaxRedirects bounds how many guard redirects one navigation may follow.
const MaxRedirects = 8

var (
	ErrRouteNotFound = errors.New("route not found")
	ErrRedirectLoop  = errors.New("too many redirects")
)

// Location is a view path plus its query parameters.
type Location struct {
	Path   string
	Params url.Values
}

func (l Location) String() string {
	if len(l.Params) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Params.Encode()
}

// ParseLocation splits "/login?redirect=%2F" into a Location.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", raw, err)
	}
	path := u.Path
	if path == "" {
		path = PathHome
	}
	loc := Location{Path: path}
	if q := u.Query(); len(q) > 0 {
		loc.Params = q
	}
	return loc, nil
}

type Route struct {
	Path   string
	Title  string
	Guards []Guard
}

// Router holds the route table and the current location.
type Router struct {
	routes map[string]Route
	logger logging.Logger

	mu        sync.RWMutex
	current   Location
	listeners []func(Location)
}

func New(logger logging.Logger, routes ...Route) *Router {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Router{routes: make(map[string]Route, len(routes)), logger: logger}
	for _, rt := range routes {
		r.routes[rt.Path] = rt
	}
	return r
}

// DefaultRoutes is the huntlog route table.
func DefaultRoutes(reader AuthReader) []Route {
	anonymousOnly := []Guard{RedirectIfAuthenticated(reader)}
	return []Route{
		{Path: PathHome, Title: "Dashboard", Guards: []Guard{RequireAuthenticated(reader)}},
		{Path: PathLogin, Title: "Log in", Guards: anonymousOnly},
		{Path: PathRegister, Title: "Create account", Guards: anonymousOnly},
		{Path: PathForgotPassword, Title: "Forgot password", Guards: anonymousOnly},
		{Path: PathResetPassword, Title: "Reset password", Guards: anonymousOnly},
		{Path: PathVerifyEmail, Title: "Verify email"},
	}
}

// Route looks up a route by path.
func (r *Router) Route(path string) (Route, bool) {
	rt, ok := r.routes[normalize(path)]
	return rt, ok
}

// Paths lists the registered paths in order.
func (r *Router) Paths() []string {
	out := make([]string, 0, len(r.routes))
	for p := range r.routes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Resolve runs the guards for target and follows their redirects until a
// route lets the navigation proceed.
func (r *Router) Resolve(target Location) (Location, error) {
	target.Path = normalize(target.Path)
	for hop := 0; hop <= MaxRedirects; hop++ {
		rt, ok := r.routes[target.Path]
		if !ok {
			return Location{}, fmt.Errorf("%w: %s", ErrRouteNotFound, target.Path)
		}
		next, redirected := runGuards(rt.Guards, target)
		if !redirected {
			return target, nil
		}
		next.Path = normalize(next.Path)
		target = next
	}
	return Location{}, fmt.Errorf("%w: last target %s", ErrRedirectLoop, target)
}

func runGuards(guards []Guard, target Location) (Location, bool) {
	for _, g := range guards {
		if res := g(target); res.IsRedirect() {
			return res.Target(), true
		}
	}
	return Location{}, false
}

// Navigate resolves path and makes the result the current location.
// Listeners are told about every completed navigation.
func (r *Router) Navigate(ctx context.Context, path string, params url.Values) (Location, error) {
	loc, err := r.Resolve(Location{Path: path, Params: params})
	if err != nil {
		r.logger.Warn(ctx, "navigation rejected", "path", path, "error", err)
		return Location{}, err
	}
	if loc.Path != normalize(path) {
		r.logger.Debug(ctx, "navigation redirected", "requested", path, "resolved", loc.String())
	}

	r.mu.Lock()
	r.current = loc
	listeners := append([]func(Location){}, r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(loc)
	}
	return loc, nil
}

// Current is the last location Navigate settled on.
func (r *Router) Current() Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// OnNavigate registers fn to run after each navigation.
func (r *Router) OnNavigate(fn func(Location)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func normalize(path string) string {
	if path == "" {
		return PathHome
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
