package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/interfaces"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// RequestFactory builds a pipeline request for the given architecture
// labels, all configured architectures when labels is empty
type RequestFactory func(labels []string) (*model.BuildRequest, error)

// config holds internal HTTP server configuration
type config struct {
	addr          string
	triggerSecret string
	newRequest    RequestFactory
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithTriggerSecret requires an HMAC-SHA256 signature on build triggers
func WithTriggerSecret(secret string) Option {
	return func(c *config) {
		c.triggerSecret = secret
	}
}

// WithRequestFactory sets how build and selection requests are created
func WithRequestFactory(fn RequestFactory) Option {
	return func(c *config) {
		c.newRequest = fn
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	buildUC interfaces.BuildUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr: "localhost:8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	api := &apiHandler{
		buildUC:    buildUC,
		newRequest: cfg.newRequest,
		secret:     cfg.triggerSecret,
		jobs:       newJobStore(),
	}
	router.Route("/api", func(r chi.Router) {
		r.Get("/selection", api.handleSelection)
		r.Post("/changelog", api.handleChangelog)
		r.Post("/builds", api.handleCreateBuild)
		r.Get("/builds", api.handleListBuilds)
		r.Get("/builds/{id}", api.handleGetBuild)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
