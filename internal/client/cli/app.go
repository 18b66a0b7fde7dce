package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dmitrijs2005/huntlog/internal/client/api"
	"github.com/dmitrijs2005/huntlog/internal/client/cache"
	"github.com/dmitrijs2005/huntlog/internal/client/client"
	"github.com/dmitrijs2005/huntlog/internal/client/config"
	"github.com/dmitrijs2005/huntlog/internal/client/router"
	"github.com/dmitrijs2005/huntlog/internal/client/services"
	"github.com/dmitrijs2005/huntlog/internal/client/session"
	"github.com/dmitrijs2005/huntlog/internal/logging"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	store       *session.Store
	nav         *router.Router
	storage     *client.Storage
	logger      logging.Logger
	reader      *bufio.Reader
	out         io.Writer
	shownPath   string

	// authenticated mirrors the store; sessionLost is set only by the
	// notification that ended an authenticated session.
	authenticated atomic.Bool
	sessionLost   atomic.Bool
}

// NewApp wires storage, the session, the HTTP client and the services.
// The persisted session is loaded before NewApp returns.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, c.LogLevel, c.LogFormat)

	storage, err := client.OpenStorage(ctx, c)
	if err != nil {
		logger.Error(ctx, "error opening session storage", "backend", c.StorageBackend, "error", err)
		return nil, err
	}

	store := session.NewStore(storage.Metadata, logger)
	if err := store.Load(ctx); err != nil {
		_ = storage.Close()
		return nil, err
	}

	a := &App{
		config:  c,
		store:   store,
		nav:     router.New(logger, router.DefaultRoutes(store)...),
		storage: storage,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}

	httpClient := client.NewHTTPClient(c.APIBaseURL, store,
		client.WithLogger(logger),
		client.WithTimeout(c.RequestTimeout),
		client.WithSingleFlightRefresh(c.SingleFlightRefresh),
		client.WithSessionExpiredHook(a.onSessionExpired),
	)
	authAPI := api.NewAuthAPI(httpClient, storage.Metadata)
	a.authService = services.NewAuthService(authAPI, store, a.nav, cache.New(), logger, c.CurrentUserStaleTime)

	a.nav.OnNavigate(a.showView)
	a.authenticated.Store(store.IsAuthenticated())
	store.Subscribe(a.trackSession)
	return a, nil
}

// Run blocks until the user exits, then releases storage.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	if a.storage == nil {
		return
	}
	if err := a.storage.Close(); err != nil {
		a.logger.Warn(context.Background(), "error closing storage", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.store.IsAuthenticated()
}

func (a *App) trackSession(s session.Session) {
	a.logger.Debug(context.Background(), "session changed", "authenticated", s.IsAuthenticated, "loading", s.IsLoading)
	was := a.authenticated.Swap(s.IsAuthenticated)
	a.sessionLost.Store(was && !s.IsAuthenticated)
}

// onSessionExpired runs right after the HTTP client cleared the store. A 401
// without a session (a wrong password, say) is not reported as an expiry.
func (a *App) onSessionExpired(ctx context.Context) {
	if a.sessionLost.Swap(false) {
		fmt.Fprintln(a.out, "Your session has expired, please log in again.")
	}
	a.authService.HandleSessionExpired(ctx)
}
