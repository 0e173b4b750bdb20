package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seantiz/lchgate/internal/config"
	"github.com/seantiz/lchgate/internal/gateway"
	"github.com/seantiz/lchgate/internal/model"
)

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
)

// ErrNonLoopback is returned by Start when the address is not a loopback address.
var ErrNonLoopback = config.ErrNonLoopback

// Server serves the gateway routes for one Gateway.
type Server struct {
	router *chi.Mux
	gw     *gateway.Gateway
	logger *slog.Logger
	addr   string

	mu       sync.Mutex
	httpSrv  *http.Server
	listener net.Listener
}

// NewServer creates and configures a new HTTP server bound to addr once started.
func NewServer(addr string, gw *gateway.Gateway, logger *slog.Logger) *Server {
	srv := &Server{
		router: chi.NewRouter(),
		gw:     gw,
		logger: logger,
		addr:   addr,
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(allowAnyOrigin)
	srv.router.Use(srv.loggingMiddleware)
	srv.router.Use(metricsMiddleware)
	srv.router.Use(srv.recoverer)
	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv.routes()

	return srv
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleNotFound)

	s.router.Get(model.RouteHealth, s.handleHealth)
	s.router.Handle(model.RouteMetrics, metricsHandler())

	s.router.Post(model.RouteCall, s.handleCall)
	s.router.Post(model.RouteSetResult, s.handleSetResult)
	s.router.Get(model.RouteGetResult, s.handleGetResult)
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start binds the listener and serves in the background until Shutdown.
// Only loopback addresses are accepted.
func (s *Server) Start(ctx context.Context) error {
	if err := config.CheckLoopback(s.addr); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpSrv != nil {
		return errors.New("server already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	s.httpSrv = httpServer
	s.listener = ln

	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address once started, or the configured address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpSrv
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
