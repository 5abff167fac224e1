package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HTTPService adapts Server to pkg/runner.Service, so the composition
// root can start and stop it alongside the rest of the system.
type HTTPService struct {
	server *Server
	port   int
	logger *slog.Logger

	httpServer *http.Server
}

// NewHTTPService constructs a runner.Service that serves server's
// routes on port.
func NewHTTPService(server *Server, port int, logger *slog.Logger) *HTTPService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPService{server: server, port: port, logger: logger}
}

func (s *HTTPService) Name() string { return "http-api" }

// Start begins listening in the background; it does not block, since
// the runner expects Start to return once the service is ready.
func (s *HTTPService) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-time.After(50 * time.Millisecond):
		s.logger.Info("http server listening", slog.Int("port", s.port))
		return nil
	}
}

func (s *HTTPService) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *HTTPService) HealthCheck(ctx context.Context) error {
	if s.httpServer == nil {
		return fmt.Errorf("http server not started")
	}
	return nil
}
