package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"contributi/internal/auth"
	"contributi/internal/cli"
	"contributi/internal/config"
	apphttp "contributi/internal/http"
	"contributi/internal/log"
	"contributi/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	publisher, amqpClient := cli.InitEventPublisher(logger, cfg)
	contributions := services.NewContributionService(repo, publisher)

	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:     cli.SessionSecret(logger, cfg),
		TTL:        cfg.SessionTTL,
		CookieName: auth.DefaultCookieName,
		Secure:     cfg.SecureCookies,
	})
	if err != nil {
		logger.Error("Failed to create session manager", log.FieldError, err)
		os.Exit(1)
	}

	authenticator := auth.NewUsernameAuthenticator(repo, cfg.AdminUsername)
	cli.WarnWeakAuth(logger, authenticator)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Contributions:      contributions,
		Authenticator:      authenticator,
		Sessions:           sessions,
		Admins:             repo,
		Storage:            repo,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Warn("SQLite close error", log.FieldError, err)
		}
	})

	logStartup(logger, cfg)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

func logStartup(logger *log.Logger, cfg *config.Config) {
	logger.Info("Starting contributi server",
		"port", cfg.Port,
		"db_path", cfg.SQLiteDBPath,
		"events", cfg.EventsEnabled(),
		"session_ttl", cfg.SessionTTL.String(),
		"rate_limit_per_minute", cfg.RateLimitPerMinute,
		"trusted_proxies", len(cfg.TrustedProxies))
}
