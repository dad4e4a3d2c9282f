// Package cli provides common initialization shared by cmd/contas and
// cmd/contas-worker.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"contas/internal/amqp"
	"contas/internal/backend"
	"contas/internal/config"
	"contas/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging and installs it as the
// process default.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore creates the configured storage backend, seeded with the
// default categories. Exits the process on failure.
func InitStore(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// DialBroker connects to the AMQP broker. When required is false a
// connection failure is tolerated and a nil client is returned; the API
// keeps serving with event publishing disabled.
func DialBroker(logger *log.Logger, cfg *config.Config, required bool) *amqp.Client {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		if required {
			logger.Error("Failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		logger.Warn("AMQP broker unavailable, transaction events disabled", "error", err)
		return nil
	}
	return client
}
