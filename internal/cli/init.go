// Package cli provides the startup steps of cmd/contributi: environment,
// configuration, logging, storage, events and signal handling.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contributi/internal/amqp"
	"contributi/internal/auth"
	"contributi/internal/config"
	"contributi/internal/log"
	"contributi/internal/services"
	"contributi/internal/storage"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and sets
// it as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	sqliteRepo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeDatabase, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("SQLite repository ready", "path", dbPath)
	return sqliteRepo
}

// InitEventPublisher connects to RabbitMQ when AMQP_URL is set. The returned
// publisher is nil when events are disabled or the broker is unreachable;
// the client is returned separately so the caller can close it.
func InitEventPublisher(logger *log.Logger, cfg *config.Config) (services.EventPublisher, *amqp.Client) {
	amqpLogger := logger.WithComponent(log.ComponentAMQP)
	if !cfg.EventsEnabled() {
		amqpLogger.Info("Contribution events disabled")
		return nil, nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		amqpLogger.Warn("AMQP unavailable, continuing without contribution events", log.FieldError, err)
		return nil, nil
	}
	amqpLogger.Info("Publishing contribution events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, client
}

// SessionSecret returns SECRET_KEY, or a random per-process secret when it
// is unset. Random secrets log everyone out on restart.
func SessionSecret(logger *log.Logger, cfg *config.Config) []byte {
	if cfg.SecretKey != "" {
		return []byte(cfg.SecretKey)
	}
	secret, err := auth.RandomSecret()
	if err != nil {
		logger.Error("Failed to generate session secret", log.FieldError, err)
		os.Exit(1)
	}
	logger.Warn("SECRET_KEY not set, using a random session secret; sessions end on restart")
	return secret
}

// WarnWeakAuth reminds operators that admin login performs no credential check.
func WarnWeakAuth(logger *log.Logger, a *auth.UsernameAuthenticator) {
	authLogger := logger.WithComponent(log.ComponentAuth)
	if a.Restricted() {
		authLogger.Warn("Admin login is restricted to ADMIN_USERNAME but performs no password check")
		return
	}
	authLogger.Warn("Admin login accepts any non-empty username; set ADMIN_USERNAME to restrict it")
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

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
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		}

		cancel()
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
