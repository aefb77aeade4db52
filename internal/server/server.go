// Package server exposes the document fetcher over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	docfetch "github.com/porticus-lab/go-docfetch"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Fetcher is the part of [docfetch.Fetcher] the server needs.
type Fetcher interface {
	Fetch(ctx context.Context, req docfetch.Request) (*docfetch.Result, error)
}

// config holds internal HTTP server configuration
type config struct {
	addr          string
	fetchTimeout  time.Duration
	maxConcurrent int
	log           zerolog.Logger
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithFetchTimeout bounds a single download request. Defaults to 5 minutes.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *config) {
		c.fetchTimeout = d
	}
}

// WithMaxConcurrent bounds how many fetches run at once. Each fetch owns a
// browser process. Defaults to 4.
func WithMaxConcurrent(n int) Option {
	return func(c *config) {
		c.maxConcurrent = n
	}
}

// WithLogger sets the logger used for access and error logs.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// Server is the HTTP server.
type Server struct {
	*http.Server
}

// NewServer creates the HTTP server around fetcher.
func NewServer(fetcher Fetcher, opts ...Option) *Server {
	cfg := &config{
		addr:          "localhost:8080",
		fetchTimeout:  5 * time.Minute,
		maxConcurrent: 4,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.maxConcurrent < 1 {
		cfg.maxConcurrent = 1
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(hlog.NewHandler(cfg.log))
	router.Use(accessLog)
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth)
	router.Get("/status", handleStatus)
	router.Get("/status-advanced", handleStatus)

	dl := &downloadHandler{
		fetcher: fetcher,
		timeout: cfg.fetchTimeout,
		slots:   make(chan struct{}, cfg.maxConcurrent),
	}
	router.Post("/download", dl.ServeHTTP)
	router.Post("/download-advanced", dl.ServeHTTP)

	return &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}
}

// accessLog logs every request once it completes.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("HTTP request")
})
