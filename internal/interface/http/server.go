// Package http exposes the engine over a local REST API for the dashboard
// frontend. The server binds to localhost by default; it is not meant to be
// reachable from outside the student's machine.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/edudash-hub/edudash-engine/internal/application/command"
	"github.com/edudash-hub/edudash-engine/internal/application/query"
	"github.com/edudash-hub/edudash-engine/internal/application/session"
	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/external/aigateway"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/secrets"
	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Store            *docstore.Store
	Bus              shared.EventPublisher
	Register         *command.RegisterUserHandler
	RecordCompletion *command.RecordCompletionHandler
	Resolve          *query.ResolveUserHandler
	Overview         *query.StudentOverviewHandler
	Session          *session.Session
	Gateway          *aigateway.Gateway
	Secrets          *secrets.Box
	Log              *logger.Logger
	Now              func() time.Time
}

// Server is the HTTP front of the engine.
type Server struct {
	cfg  Config
	deps Deps
	log  *logger.Logger
	srv  *http.Server
}

// NewServer creates the server with all routes wired.
func NewServer(cfg Config, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logger.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		// Generation calls wait on upstream providers.
		cfg.WriteTimeout = 60 * time.Second
	}

	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  deps.Log.With(logger.Component("http")),
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.routes())

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Start blocks serving requests until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.log.Info("http server listening", logger.String("addr", s.cfg.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}

// Handler exposes the full route tree. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
