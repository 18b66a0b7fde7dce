// Package httpapi exposes the devapi account service over REST/JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/huntlog/internal/client/api"
	"github.com/dmitrijs2005/huntlog/internal/devapi/users"
	"github.com/dmitrijs2005/huntlog/internal/logging"
)

// BasePath prefixes every endpoint.
const BasePath = "/api/v1"

type Server struct {
	httpServer *http.Server
	svc        *users.Service
	logger     logging.Logger
}

func NewServer(addr string, svc *users.Service, logger logging.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler builds the router. Exposed for httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route(BasePath, func(r chi.Router) {
		r.Post(api.PathLogin, s.handleLogin)
		r.Post(api.PathRegister, s.handleRegister)
		r.Post(api.PathRefresh, s.handleRefresh)
		r.Post(api.PathForgotPassword, s.handleForgotPassword)
		r.Post(api.PathResetPassword, s.handleResetPassword)
		r.Post(api.PathVerifyEmail, s.handleVerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post(api.PathLogout, s.handleLogout)
			r.Get(api.PathMe, s.handleMe)
			r.Post(api.PathChangePassword, s.handleChangePassword)
			r.Post(api.PathResendVerification, s.handleResendVerification)
		})
	})
	return r
}

func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
