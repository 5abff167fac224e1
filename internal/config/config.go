// Package config loads the service's runtime configuration from its
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// Config holds every environment-derived setting the service needs.
type Config struct {
	// APIPort is the HTTP listen port.
	APIPort int

	// LogLevel controls the slog level: debug, info, warn, or error.
	LogLevel slog.Level

	// ServiceName and ServiceVersion are stamped onto telemetry resources.
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// Load reads Config from the process environment, applying defaults
// for anything unset.
func Load() (Config, error) {
	port, err := strconv.Atoi(getEnv("API_PORT", "3000"))
	if err != nil {
		return Config{}, fmt.Errorf("parse API_PORT: %w", err)
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		APIPort:        port,
		LogLevel:       level,
		ServiceName:    getEnv("SERVICE_NAME", "usercqrs"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		Environment:    getEnv("ENVIRONMENT", "dev"),
	}, nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", raw)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
