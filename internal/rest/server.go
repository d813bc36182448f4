// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package rest exposes secret splitting and reconstruction over HTTP.
//
// Routes:
//
//	POST /v1/split    {"secret": "<base64>", "shares": 5, "threshold": 3}
//	POST /v1/combine  {"shares": ["<share>", ...]}
//	GET  /health
//	GET  /health/live
//	GET  /health/ready
//	GET  /metrics
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-shamir/pkg/correlation"
	"github.com/jeremyhahn/go-shamir/pkg/health"
	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/ratelimit"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Server is the REST API server.
type Server struct {
	server   *http.Server
	certFile string
	keyFile  string
	handlers *Handlers
	limiter  *ratelimit.Limiter
	logger   logger.Logger
	metrics  bool
}

// Config holds the REST server configuration.
type Config struct {
	// Host is the interface to bind (default: 127.0.0.1)
	Host string

	// Port is the HTTP port to listen on (default: 8480)
	Port int

	// Dealer performs split and combine (default: shamir.NewDealer())
	Dealer *shamir.Dealer

	// Limiter enforces per-client request budgets (optional)
	Limiter *ratelimit.Limiter

	// Health runs readiness checks (default: a checker with no checks)
	Health *health.Checker

	// Logger is the logging adapter (default: no-op)
	Logger logger.Logger

	// Metrics enables the /metrics route and HTTP instrumentation
	Metrics bool

	// Version is reported by /health
	Version string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set
	TLSCertFile string
	TLSKeyFile  string

	// MaxBodyBytes caps request bodies (default: DefaultMaxBodyBytes)
	MaxBodyBytes int64

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a REST server from cfg.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 8480
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", port)
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, errors.New("TLS requires both a certificate and a key file")
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 60 * time.Second
	}
	idleTimeout := cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	dealer := cfg.Dealer
	if dealer == nil {
		dealer = shamir.NewDealer(shamir.WithLogger(log), shamir.WithMetrics(cfg.Metrics))
	}
	checker := cfg.Health
	if checker == nil {
		checker = health.NewChecker(0)
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		handlers: NewHandlers(dealer, checker, version, maxBody),
		certFile: cfg.TLSCertFile,
		keyFile:  cfg.TLSKeyFile,
		limiter:  cfg.Limiter,
		logger:   log,
		metrics:  cfg.Metrics,
	}
	s.server = &http.Server{
		Addr:         net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s, nil
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(correlation.Middleware)
	r.Use(s.RecoveryMiddleware())
	r.Use(s.LoggingMiddleware())
	if s.metrics {
		r.Use(metrics.HTTPMiddleware)
	}

	r.Get("/health", s.handlers.Health)
	r.Head("/health", s.handlers.Health)
	r.Get("/health/live", s.handlers.Live)
	r.Get("/health/ready", s.handlers.Ready)
	if s.metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(ratelimit.Middleware(s.limiter))
		}
		r.Post("/split", s.handlers.Split)
		r.Post("/combine", s.handlers.Combine)
	})

	return r
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Serve accepts connections on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	if s.certFile != "" {
		s.logger.Info("Starting HTTPS server", logger.String("addr", ln.Addr().String()))
		err = s.server.ServeTLS(ln, s.certFile, s.keyFile)
	} else {
		s.logger.Info("Starting HTTP server", logger.String("addr", ln.Addr().String()))
		err = s.server.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}
	return nil
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server", logger.Error(err))
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}
