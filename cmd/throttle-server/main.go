// Command throttle-server is a demo login service guarded by goThrottle.
//
// Configuration comes from the environment and an optional .env file:
//
//	SERVER_PORT                     listen port (8080)
//	THROTTLE_FAILURE_THRESHOLD      failures allowed per range (100)
//	THROTTLE_FAILURE_RANGE_SECONDS  range length in seconds (60)
//	THROTTLE_USERNAME_PARAMETER     form field keyed with the address ("username")
//	DEMO_USERS                      name:password pairs ("alice:correct-horse")
//	REDIS_ADDR, AUDIT_STREAM        audit events via XADD when set
//	LOG_LEVEL, LOG_FORMAT, LOG_FILE logging
//
// SIGHUP re-reads .env and applies the THROTTLE_* values without a restart.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	goThrottle "github.com/MrEthical07/goThrottle"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "throttle-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser := newLogger(cfg.Log)
	defer logCloser.Close()
	slog.SetDefault(logger)

	users, err := newUserStore(cfg.Users, bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	engineCfg := goThrottle.DefaultConfig()
	engineCfg.Throttle = cfg.Throttle
	engineCfg.Metrics.Enabled = true
	engineCfg.Metrics.EnableLatencyHistograms = true

	builder := goThrottle.New().WithConfig(engineCfg).WithLogger(logger)

	sink, closeSink, err := initAuditSink(cfg.Audit, logger)
	if err != nil {
		return fmt.Errorf("init audit: %w", err)
	}
	defer closeSink()
	if sink != nil {
		builder = builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	for _, code := range engine.Report().LintCodes {
		logger.Warn("throttle-server: config lint", "code", code)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(engine, users, logger, cfg.Server.TrustProxy),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchReload(ctx, engine, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("throttle-server: listening", "addr", srv.Addr, "strategy", engine.Strategy())
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("throttle-server: shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("throttle-server: graceful shutdown failed", "error", err)
	}
	return nil
}

// watchReload applies the THROTTLE_* settings from .env on every SIGHUP.
func watchReload(ctx context.Context, engine *goThrottle.Engine, logger *slog.Logger, files ...string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := reloadThrottle(ctx, engine, files...); err != nil {
				logger.Error("throttle-server: reload failed", "error", err)
				continue
			}
			tc := engine.ThrottleConfig()
			logger.Info("throttle-server: throttle config reloaded",
				"threshold", tc.FailureThreshold,
				"range_seconds", tc.FailureRangeSeconds,
				"username_parameter", tc.UsernameParameter,
			)
		}
	}
}

func reloadThrottle(ctx context.Context, engine *goThrottle.Engine, files ...string) error {
	tc, err := ReloadThrottle(files...)
	if err != nil {
		return err
	}
	return engine.Reload(ctx, tc)
}

func initAuditSink(cfg AuditConfig, logger *slog.Logger) (goThrottle.AuditSink, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{cfg.RedisAddr},
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
	}

	sink := goThrottle.NewRedisStreamSink(client, goThrottle.RedisStreamConfig{Stream: cfg.Stream}, func(err error) {
		logger.Warn("throttle-server: audit write failed", "error", err)
	})
	return sink, func() {
		if err := client.Close(); err != nil {
			logger.Warn("throttle-server: failed to close redis client", "error", err)
		}
	}, nil
}
