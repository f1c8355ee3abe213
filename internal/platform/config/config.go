// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"os"
	"strings"
)

type HTTPConfig struct {
	Addr string
}

type RecordStoreConfig struct {
	// DatabaseURL selects the Postgres-backed record store. When empty the
	// in-memory store is used, which is only permitted outside production.
	DatabaseURL string
}

type AppConfig struct {
	ServiceName string
	Env         string // "production" enforces persistent storage
	LogLevel    string
	HTTP        HTTPConfig
	Records     RecordStoreConfig
	JWTSecret   string
	NATSURL     string
}

func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: getenv("SERVICE_NAME"),
		Env:         getenv("APP_ENV"),
		LogLevel:    getenv("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Addr: getenv("HTTP_ADDR"),
		},
		Records: RecordStoreConfig{
			DatabaseURL: getenv("DATABASE_URL"),
		},
		JWTSecret: getenv("JWT_SECRET"),
		NATSURL:   getenv("NATS_URL"),
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.IsProduction() {
		if cfg.Records.DatabaseURL == "" {
			return AppConfig{}, errors.New("DATABASE_URL is required in production")
		}
		if cfg.JWTSecret == "" {
			return AppConfig{}, errors.New("JWT_SECRET is required in production")
		}
	}
	return cfg, nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
