package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	infraPostgres "github.com/architeacher/workpackages/services/svc-workpackages/internal/infrastructure/postgres"
)

type ServiceCtx struct {
	deps            *dependencies
	extraOptions    []DependencyOption
	shutdownChannel chan os.Signal
	serverErrors    chan error
	serverCtx       context.Context
	serverStopFunc  context.CancelFunc
	serverReady     chan struct{}
}

func New(opts ...ServiceOption) *ServiceCtx {
	ctx := &ServiceCtx{
		shutdownChannel: make(chan os.Signal, 1),
		serverErrors:    make(chan error, 1),
	}

	for _, opt := range opts {
		opt(ctx)
	}

	return ctx
}

// Run builds the service, serves until a termination signal arrives or the
// server fails, then releases every resource.
func (c *ServiceCtx) Run() error {
	if err := c.build(); err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}

	listener, err := c.listen()
	if err != nil {
		c.serverStopFunc()
		c.cleanup(context.Background())

		return err
	}

	c.startService(listener)
	c.shutdownHook()

	var serveErr error

	// Waits for one of the following shutdown conditions to happen.
	select {
	case <-c.serverCtx.Done():
	case serveErr = <-c.serverErrors:
	case <-c.shutdownChannel:
	}

	c.shutdown()

	return serveErr
}

func (c *ServiceCtx) build() error {
	c.serverCtx, c.serverStopFunc = context.WithCancel(context.Background())

	var err error

	c.deps, err = initializeDependencies(c.serverCtx, c.extraOptions...)
	if err != nil {
		c.serverStopFunc()

		return fmt.Errorf("initializing dependencies: %w", err)
	}

	return nil
}

func (c *ServiceCtx) listen() (net.Listener, error) {
	addr := c.deps.infra.httpServer.Addr

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return listener, nil
}

func (c *ServiceCtx) startService(listener net.Listener) {
	c.deps.infra.logger.Info().
		Str("address", listener.Addr().String()).
		Msg("starting the http server")

	if c.serverReady != nil {
		close(c.serverReady)
	}

	go func() {
		if err := c.deps.infra.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.serverErrors <- fmt.Errorf("http server error: %w", err)
		}
	}()
}

func (c *ServiceCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *ServiceCtx) shutdown() {
	c.deps.infra.logger.Info().Msg("shutting down service...")

	signal.Stop(c.shutdownChannel)

	// Cancel context that underlying processes would start cleanup.
	c.serverStopFunc()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.config.HTTPServer.ShutdownTimeout)
	defer cancel()

	go func() {
		<-shutdownCtx.Done()

		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			c.deps.infra.logger.Error().Msg("graceful shutdown timed out.. forcing exit.")
			os.Exit(1)
		}
	}()

	c.cleanup(shutdownCtx)

	c.deps.infra.logger.Info().Msg("service shutdown complete")
}

// WaitForServer blocks until the http server is accepting connections.
// The service must be created with WithWaitingForServer, otherwise it
// returns immediately.
//
// Example:
//
//	srv := runtime.New(runtime.WithWaitingForServer())
//	go func() {
//		_ = srv.Run()
//	}()
//
//	srv.WaitForServer()
func (c *ServiceCtx) WaitForServer() {
	if c.serverReady != nil {
		<-c.serverReady
	}
}

func (c *ServiceCtx) cleanup(shutdownCtx context.Context) {
	c.deps.infra.logger.Info().Msg("cleaning up resources...")

	// The server drains first so in-flight requests still reach the pool.
	if shutdownFn, ok := c.deps.cleanupFuncs["http_server"]; ok {
		if err := shutdownFn(shutdownCtx); err != nil {
			c.deps.infra.logger.Error().Err(err).Str("resource", "http_server").Msg("failed to shutdown the resource gracefully")
		}
	}

	for resource, cleanupFn := range c.deps.cleanupFuncs {
		if resource == "http_server" {
			continue
		}

		if err := cleanupFn(shutdownCtx); err != nil {
			c.deps.infra.logger.Error().
				Err(err).
				Str("resource", resource).
				Msg("failed to shutdown the resource gracefully")
		}
	}

	c.deps.infra.logger.Info().Msg("cleanup completed")
}

// Migrate applies the pending schema migrations and exits without serving.
func Migrate(ctx context.Context) error {
	deps, err := applyOptions(migrationOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}

	if err := infraPostgres.Migrate(deps.config.Database, deps.infra.logger); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	return nil
}
