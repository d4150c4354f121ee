package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetly/internal/backend"
	"budgetly/internal/cli"
	apphttp "budgetly/internal/http"
	"budgetly/internal/log"
	"budgetly/internal/services"
)

const startupConnectTimeout = 10 * time.Second

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger("info", "text")
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err.Error(), log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	cli.ConnectStore(ctx, logger, result.Store, startupConnectTimeout)

	// A nil *amqp.Client must not reach the services as a non-nil interface.
	var events services.EventPublisher
	amqpClient := cli.ConnectAMQP(ctx, logger, cfg)
	if amqpClient != nil {
		events = amqpClient
	}

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	}, result.Store, events)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Store cleanup error", log.FieldError, err.Error())
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err.Error())
			}
		}
	})

	logger.Info("Starting budgetly server", log.FieldOperation, log.OpStartup,
		"port", cfg.Port, log.FieldBackend, cfg.DataBackend, "events", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
