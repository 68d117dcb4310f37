// Package server assembles the inventory HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/auth"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/config"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/handler"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/middleware"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/store"
)

// HTTP limits.
const (
	readTimeout       = 15 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	maxHeaderBytes    = 1 << 20
)

// Server serves the inventory REST API, the /ws snapshot feed, /health and
// optionally /metrics.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	logger     *zap.Logger
	authMode   auth.Mode
	wsHandler  *handler.WebSocketHandler
}

// New wires a Server around inventory. A nil authenticator leaves every
// route open.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	inventory store.Store,
	authenticator auth.Authenticator,
) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		config:   cfg,
		logger:   logger,
		authMode: auth.ModeNone,
	}

	opts := middleware.StackOptions{
		Metrics: cfg.MetricsEnabled,
		CORS:    corsOptions(),
	}
	if authenticator != nil {
		s.authMode = authenticator.Mode()
		opts.Auth = middleware.Auth(authenticator, logger)
	}
	s.router.Use(mux.MiddlewareFunc(middleware.Stack(logger, opts)))

	// The feed is the notifier of the REST handler: every mutation pushes
	// a fresh snapshot to connected viewers.
	s.wsHandler = handler.NewWebSocketHandler(inventory, logger)
	s.wsHandler.RegisterRoutes(s.router)
	handler.NewRESTHandler(inventory, s.wsHandler, cfg.ExportDir, logger).RegisterRoutes(s.router)

	if cfg.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}

	return s
}

func corsOptions() middleware.CORSOptions {
	return middleware.CORSOptions{
		Origins: []string{"*"},
		Methods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		Headers: []string{
			"Content-Type",
			"Authorization",
			auth.APIKeyHeader,
			middleware.RequestIDHeader,
		},
	}
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("inventory server listening",
		zap.String("address", s.httpServer.Addr),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.String("auth_mode", string(s.authMode)),
		zap.String("export_dir", s.config.ExportDir),
	)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
}

// Shutdown disconnects WebSocket viewers, then drains in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("inventory server stopping")

	s.wsHandler.CloseAllConnections()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("draining http requests: %w", err)
	}

	s.logger.Info("inventory server stopped")
	return nil
}

// Router exposes the routing tree, mainly for httptest servers.
func (s *Server) Router() *mux.Router {
	return s.router
}
