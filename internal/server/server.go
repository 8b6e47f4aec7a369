package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/coaldraw/pkg/pipeline"
	"github.com/matzehuels/coaldraw/pkg/quiz"
	"github.com/matzehuels/coaldraw/pkg/store"
)

// Defaults for [Config].
const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 1 << 20
	shutdownTimeout     = 10 * time.Second
)

// Config holds the listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

// Server serves the HTTP API. Create one with [New].
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	store  store.Store
	quiz   quiz.File
	logger *log.Logger
	router chi.Router
}

// New wires the routes. The runner and store are shared with the caller,
// which remains responsible for closing them.
func New(cfg Config, runner *pipeline.Runner, st store.Store, qf quiz.File, logger *log.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		store:  st,
		quiz:   qf,
		logger: logger.WithPrefix("http"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(hooks)

	r.Get("/healthz", s.handleHealth)
	r.Post("/render", s.handleRender)

	r.Route("/trees", func(r chi.Router) {
		r.Get("/", s.handleListTrees)
		r.Post("/", s.handleCreateTree)
		r.Get("/{id}", s.handleGetTree)
		r.Delete("/{id}", s.handleDeleteTree)
		r.Get("/{id}/render.{format}", s.handleRenderTree)
	})

	r.Get("/figures", s.handleListFigures)
	r.Get("/figures/{name}.svg", s.handleFigure)

	r.Get("/quiz", s.handleListQuiz)
	r.Get("/quiz/{section}", s.handleQuizSection)
	r.Post("/quiz/{section}/{label}/check", s.handleQuizCheck)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNotFound(r.URL.Path))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
