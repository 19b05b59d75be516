package main

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/casefile/internal/config"
	"github.com/JaimeStill/casefile/internal/infrastructure"
	"github.com/JaimeStill/casefile/internal/server"
)

// Server coordinates the lifecycle of all subsystems.
type Server struct {
	infra *infrastructure.Infrastructure
	http  server.System
}

// NewServer creates and initializes the service with all subsystems.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	domain, err := NewDomain(infra, cfg)
	if err != nil {
		return nil, err
	}

	handler, err := buildRouter(infra, domain, cfg)
	if err != nil {
		return nil, err
	}

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"store", cfg.Versions.Store,
		"storage", cfg.Storage.Driver,
		"auth", cfg.Auth.Enabled,
	)

	return &Server{
		infra: infra,
		http:  server.New(&cfg.Server, cfg.ShutdownTimeoutDuration(), handler, infra.Logger),
	}, nil
}

// Start begins all subsystems and returns once the listener is bound.
// Readiness flips when every startup hook has finished.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return fmt.Errorf("server start failed: %w", err)
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown gracefully stops all subsystems within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
