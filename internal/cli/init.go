// Package cli provides the startup and shutdown helpers used by cmd/budgetly.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetly/internal/amqp"
	"budgetly/internal/config"
	"budgetly/internal/log"
	"budgetly/internal/storage"
)

// SetupLogger builds the application logger for the given level and format
// and installs it as the slog default.
func SetupLogger(level, format string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Format:    format,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads a .env file (or the given files) for local development.
// A missing file is not an error; variables already set are kept.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// LoadAndValidateConfig loads configuration and validates it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// ConnectStore opens the store connection at startup. Failure is only logged:
// requests retry the connection and /readyz reports the outage.
func ConnectStore(ctx context.Context, logger *log.Logger, store storage.Store, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := store.Connect(ctx); err != nil {
		logger.WarnContext(ctx, "Store not reachable at startup, will retry on demand",
			log.FieldComponent, log.ComponentStorage, log.FieldError, err.Error())
		return
	}
	logger.InfoContext(ctx, "Store connected", log.FieldComponent, log.ComponentStorage)
}

// ConnectAMQP connects the record event publisher when a broker URL is
// configured. It returns nil when events are disabled or the broker is down.
func ConnectAMQP(ctx context.Context, logger *log.Logger, cfg *config.Config) *amqp.Client {
	amqpLogger := logger.WithComponent(log.ComponentAMQP)
	if cfg.AMQPURL == "" {
		amqpLogger.InfoContext(ctx, "AMQP disabled, record events will not be published")
		return nil
	}

	client, err := amqp.ConnectWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPConnectAttempts)
	if err != nil {
		amqpLogger.WarnContext(ctx, "AMQP unavailable, continuing without record events",
			log.FieldError, err.Error(), "exchange", cfg.AMQPExchange)
		return nil
	}
	amqpLogger.InfoContext(ctx, "AMQP connected", "exchange", cfg.AMQPExchange)
	return client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that is cancelled once cleanup has run, and a channel
// closed when shutdown is complete. cleanup gets a context bounded by timeout.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return shutdownOnSignal(logger, timeout, sigChan, cleanup)
}

func shutdownOnSignal(logger *log.Logger, timeout time.Duration, sigChan <-chan os.Signal, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached", "timeout", timeout.String())
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and shutdown is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
