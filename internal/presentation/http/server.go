package http

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acecasino/settlement_api/internal/config"
	"github.com/acecasino/settlement_api/internal/presentation/http/middleware"
	"github.com/acecasino/settlement_api/internal/presentation/http/routes"
	"github.com/acecasino/settlement_api/pkg/logger"
	"github.com/labstack/echo"
	"github.com/pkg/errors"
)

const maxBodySize = "1M"

// Server represents the HTTP server
type Server struct {
	config *config.Config
	server *echo.Echo
}

// NewServer creates a new HTTP server with all routes registered
func NewServer(cfg *config.Config, h routes.Handlers) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Metrics())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS(cfg.Server.CORSOrigins))
	e.Use(middleware.BodyLimit(maxBodySize))

	routes.SetupRoutes(e, h)

	return &Server{
		config: cfg,
		server: e,
	}
}

// Echo returns the underlying echo instance
func (s *Server) Echo() *echo.Echo {
	return s.server
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(s.config.Server.Host, port)

	logger.GetLogger().Infof("Starting server on %s", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "failed to start server")
	case <-quit:
	}

	logger.GetLogger().Info("Shutting down server...")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}

	logger.GetLogger().Info("Server exited")
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
