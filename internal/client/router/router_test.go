package router

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_DefaultRoutes(t *testing.T) {
	tests := []struct {
		name   string
		authed bool
		path   string
		want   string
	}{
		{name: "anonymous dashboard goes to login", path: "/", want: "/login?redirect=%2F"},
		{name: "anonymous login proceeds", path: "/login", want: "/login"},
		{name: "anonymous verify proceeds", path: "/verify-email", want: "/verify-email"},
		{name: "authed login goes home", authed: true, path: "/login", want: "/"},
		{name: "authed register goes home", authed: true, path: "/register", want: "/"},
		{name: "authed reset goes home", authed: true, path: "/reset-password", want: "/"},
		{name: "authed verify proceeds", authed: true, path: "/verify-email", want: "/verify-email"},
		{name: "trailing slash", authed: true, path: "/verify-email/", want: "/verify-email"},
		{name: "authed dashboard", authed: true, path: "/", want: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(nil, DefaultRoutes(fakeAuth(tt.authed))...)
			loc, err := r.Resolve(Location{Path: tt.path})
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc.String())
		})
	}
}

func TestResolve_UnknownRoute(t *testing.T) {
	r := New(nil, DefaultRoutes(fakeAuth(false))...)
	_, err := r.Resolve(Location{Path: "/ammo"})
	require.ErrorIs(t, err, ErrRouteNotFound)
}

func TestResolve_RedirectLoop(t *testing.T) {
	r := New(nil,
		Route{Path: "/a", Guards: []Guard{func(Location) GuardResult { return RedirectTo("/b", nil) }}},
		Route{Path: "/b", Guards: []Guard{func(Location) GuardResult { return RedirectTo("/a", nil) }}},
	)
	_, err := r.Resolve(Location{Path: "/a"})
	require.ErrorIs(t, err, ErrRedirectLoop)
}

func TestResolve_GuardsRunBeforeViewInOrder(t *testing.T) {
	var order []string
	first := func(Location) GuardResult { order = append(order, "first"); return RedirectTo("/login", nil) }
	second := func(Location) GuardResult { order = append(order, "second"); return Proceed() }

	r := New(nil, Route{Path: "/", Guards: []Guard{first, second}}, Route{Path: "/login"})
	loc, err := r.Resolve(Location{Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, []string{"first"}, order)
}

func TestNavigate_UpdatesCurrentAndNotifies(t *testing.T) {
	auth := fakeAuth(false)
	r := New(nil, DefaultRoutes(auth)...)

	var seen []string
	r.OnNavigate(func(l Location) { seen = append(seen, l.String()) })

	loc, err := r.Navigate(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, loc, r.Current())

	_, err = r.Navigate(context.Background(), "/nowhere", nil)
	require.Error(t, err)
	assert.Equal(t, loc, r.Current(), "failed navigation keeps the current location")

	loc, err = r.Navigate(context.Background(), "/reset-password", url.Values{"token": {"abc"}})
	require.NoError(t, err)
	assert.Equal(t, "abc", loc.Params.Get("token"))

	assert.Equal(t, []string{"/login?redirect=%2F", "/reset-password?token=abc"}, seen)
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("/login?redirect=%2F")
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/", loc.Params.Get(RedirectParam))

	loc, err = ParseLocation("")
	require.NoError(t, err)
	assert.Equal(t, Location{Path: "/"}, loc)

	_, err = ParseLocation("%zz")
	assert.Error(t, err)
}

func TestRouter_Paths(t *testing.T) {
	r := New(nil, DefaultRoutes(fakeAuth(false))...)
	assert.Equal(t, []string{"/", "/forgot-password", "/login", "/register", "/reset-password", "/verify-email"}, r.Paths())

	rt, ok := r.Route("/login/")
	require.True(t, ok)
	assert.Equal(t, "Log in", rt.Title)
}
