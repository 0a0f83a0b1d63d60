package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gofrs/flock"
	"github.com/openmined/davbox/internal/utils"
	"github.com/openmined/davbox/internal/version"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var ErrServerLocked = errors.New("another server instance holds the lock")

type Server struct {
	config *Config
	server *http.Server
	svc    *Services
	lock   *flock.Flock
}

func New(config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	svc, err := NewServices(config)
	if err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}

	handler, err := SetupRoutes(config, svc)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("routes: %w", err)
	}

	return &Server{
		config: config,
		svc:    svc,
		lock:   flock.New(config.LockFilePath()),
		server: &http.Server{
			Addr:              config.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.acquireLock(); err != nil {
		s.svc.Close()
		return err
	}
	defer s.lock.Unlock()

	listener, err := net.Listen("tcp", s.config.HTTP.Addr)
	if err != nil {
		s.svc.Close()
		return fmt.Errorf("listen %s: %w", s.config.HTTP.Addr, err)
	}

	slog.Info("server start", "version", version.Short(), "addr", listener.Addr().String(), "root", s.svc.Resolver.Root())
	defer slog.Info("server stop")

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := s.serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		return s.Stop(context.Background())
	})

	return eg.Wait()
}

// Stop drains in-flight requests and releases resources.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.svc.Close(); err != nil {
		errs = append(errs, fmt.Errorf("services close: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Server) serve(listener net.Listener) error {
	if s.config.HTTP.TLS() {
		slog.Info("http server tls", "cert", s.config.HTTP.CertFile, "key", s.config.HTTP.KeyFile)
		return s.server.ServeTLS(listener, s.config.HTTP.CertFile, s.config.HTTP.KeyFile)
	}
	return s.server.Serve(listener)
}

func (s *Server) acquireLock() error {
	if err := utils.EnsureParent(s.lock.Path()); err != nil {
		return fmt.Errorf("lock dir: %w", err)
	}
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrServerLocked, s.lock.Path())
	}
	return nil
}
