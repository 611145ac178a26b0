// Package httpapi exposes the signup, verification, and signin operations
// over HTTP. Business-condition failures (duplicate email, unknown user,
// bad credentials) are 200 responses carrying a tagged error body;
// infrastructure and token failures map to 5xx/401 with no detail leaked.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verigate/verigate/internal/logging"
	"github.com/verigate/verigate/internal/server/users"
)

type Server struct {
	address string
	users   *users.Service
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, us *users.Service) *Server {
	return &Server{
		address: address,
		users:   us,
		logger:  l.With("module", "http_server"),
	}
}

// Router builds the public route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/auth/create-user", s.handleSignUp)
	r.Get("/auth/login-user", s.handleSignIn)
	r.Post("/auth/verify-user/{token}", s.handleVerify)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
