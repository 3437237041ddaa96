// Package cli holds the start-up steps shared by cmd/catreport,
// cmd/catreport-server and cmd/catreport-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"catreport/internal/backend"
	"catreport/internal/config"
	"catreport/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the component logger at cfg.LogLevel and makes it the
// default slog logger. Unknown levels fall back to info.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.NewForComponent(component, level)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", log.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads .env and the environment, then sets up logging.
// It exits the process when validation fails.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend creates the backend selected by DATA_BACKEND. Callers run
// Close on the result when done.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Backend, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", bcfg.Type, err)
	}
	return &Backend{BackendResult: res, Type: bcfg.Type, logger: logger}, nil
}

// Backend is an opened ledger backend.
type Backend struct {
	*backend.BackendResult
	Type   backend.BackendType
	logger *log.Logger
}

// Pinger returns the readiness probe, or nil when the backend has none.
func (b *Backend) Pinger() backend.Pinger {
	p, _ := b.Ledger.(backend.Pinger)
	return p
}

func (b *Backend) Close() {
	if b.Cleanup == nil {
		return
	}
	if err := b.Cleanup(); err != nil {
		b.logger.Error("Backend cleanup failed", log.FieldError, err, "backend", string(b.Type))
	}
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs with a timeout-bound context before the returned context is cancelled.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()
	}()

	return ctx
}
