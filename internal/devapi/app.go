// Package devapi runs an in-memory implementation of the huntlog auth
// backend. It exists so the client can be exercised locally without the
// real service: tokens that would be emailed are written to the log.
package devapi

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/huntlog/internal/devapi/config"
	"github.com/dmitrijs2005/huntlog/internal/devapi/httpapi"
	"github.com/dmitrijs2005/huntlog/internal/devapi/users"
	"github.com/dmitrijs2005/huntlog/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
}

func NewApp(c *config.Config) *App {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	svc := users.NewService(
		users.NewMemoryRepository(),
		users.NewMemoryTokenRepository(),
		users.LogMailer{Logger: logger},
		logger,
		c,
	)

	return &App{
		config: c,
		logger: logger,
		server: httpapi.NewServer(c.ListenAddr, svc, logger),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "starting devapi",
		"addr", app.config.ListenAddr,
		"access_token_ttl", app.config.AccessTokenValidityDuration,
		"refresh_token_ttl", app.config.RefreshTokenValidityDuration,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			app.logger.Error(ctx, "server stopped", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown failed", "error", err)
		return err
	}
	app.logger.Info(shutdownCtx, "devapi stopped")
	return <-errCh
}
