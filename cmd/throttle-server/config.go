package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	goThrottle "github.com/MrEthical07/goThrottle"
)

// Config is the demo server configuration, read from the environment and
// an optional .env file.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Throttle goThrottle.ThrottleConfig
	Audit    AuditConfig
	Users    map[string]string
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	TrustProxy      bool
}

type LogConfig struct {
	Level      slog.Level
	Format     string // "text" or "json"
	File       string // empty = stderr only
	MaxSizeMB  int
	MaxBackups int
}

// AuditConfig selects the audit destination. An empty RedisAddr disables
// auditing.
type AuditConfig struct {
	RedisAddr string
	Stream    string
}

// Load reads the configuration. Variables already present in the
// environment take precedence over the .env files.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)

	server, err := buildServerConfig()
	if err != nil {
		return Config{}, err
	}

	throttle, err := buildThrottleConfig()
	if err != nil {
		return Config{}, err
	}

	users, err := parseUsers(getEnv("DEMO_USERS", "alice:correct-horse"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server:   server,
		Log:      buildLogConfig(),
		Throttle: throttle,
		Audit: AuditConfig{
			RedisAddr: getEnv("REDIS_ADDR", ""),
			Stream:    getEnv("AUDIT_STREAM", "goThrottle:audit"),
		},
		Users: users,
	}, nil
}

// ReloadThrottle re-reads the .env files, overriding the current
// environment, and returns the throttling policy they describe. A missing
// file leaves the environment as it is.
func ReloadThrottle(files ...string) (goThrottle.ThrottleConfig, error) {
	if err := godotenv.Overload(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goThrottle.ThrottleConfig{}, fmt.Errorf("reload env: %w", err)
	}
	return buildThrottleConfig()
}

func buildServerConfig() (ServerConfig, error) {
	timeoutSeconds, err := strconv.Atoi(getEnv("SHUTDOWN_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS: %w", err)
	}
	trust, err := strconv.ParseBool(getEnv("TRUST_PROXY_HEADERS", "false"))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid TRUST_PROXY_HEADERS: %w", err)
	}

	return ServerConfig{
		Port:            getEnv("SERVER_PORT", "8080"),
		ShutdownTimeout: time.Duration(timeoutSeconds) * time.Second,
		TrustProxy:      trust,
	}, nil
}

func buildThrottleConfig() (goThrottle.ThrottleConfig, error) {
	threshold, err := strconv.Atoi(getEnv("THROTTLE_FAILURE_THRESHOLD", "100"))
	if err != nil {
		return goThrottle.ThrottleConfig{}, fmt.Errorf("invalid THROTTLE_FAILURE_THRESHOLD: %w", err)
	}
	rangeSeconds, err := strconv.Atoi(getEnv("THROTTLE_FAILURE_RANGE_SECONDS", "60"))
	if err != nil {
		return goThrottle.ThrottleConfig{}, fmt.Errorf("invalid THROTTLE_FAILURE_RANGE_SECONDS: %w", err)
	}

	// An explicitly empty parameter disables username keys.
	param, ok := os.LookupEnv("THROTTLE_USERNAME_PARAMETER")
	if !ok {
		param = "username"
	}

	return goThrottle.ThrottleConfig{
		FailureThreshold:    threshold,
		FailureRangeSeconds: rangeSeconds,
		UsernameParameter:   strings.TrimSpace(param),
	}, nil
}

func buildLogConfig() LogConfig {
	cfg := LogConfig{
		Level:      slog.LevelInfo,
		Format:     "text",
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 50),
		MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
	}

	switch strings.ToLower(getEnv("LOG_LEVEL", "")) {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "warn", "warning":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}

	if strings.EqualFold(getEnv("LOG_FORMAT", ""), "json") {
		cfg.Format = "json"
	}
	return cfg
}

// parseUsers reads "name:password" pairs separated by commas.
func parseUsers(raw string) (map[string]string, error) {
	users := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return users, nil
	}

	for _, item := range strings.Split(raw, ",") {
		name, password, ok := strings.Cut(strings.TrimSpace(item), ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || password == "" {
			return nil, fmt.Errorf("DEMO_USERS entry must follow NAME:PASSWORD: %q", item)
		}
		users[name] = password
	}
	return users, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}
