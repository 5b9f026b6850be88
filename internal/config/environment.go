// Package config provides configuration loading and management for the Top 5 API.
package config

import (
	"context"
	"os"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"

	"github.com/tiaocarreiro/top5/pkg/logger"
)

// Config holds environment configuration for the Top 5 API.
type Config struct {
	// Port is the port on which the API server listens.
	Port string `env:"TOP5_PORT"`

	// PostgresURL takes precedence over the discrete Postgres fields when set.
	PostgresURL      string `env:"POSTGRES_URL"`
	PostgresHost     string `env:"POSTGRES_HOST"`
	PostgresPort     string `env:"POSTGRES_PORT"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE"`

	RedisAddr string `env:"REDIS_ADDR"`

	// AdminToken guards the /admin route group. Stands in for a full JWT
	// service, which is an external collaborator of this API.
	AdminToken string `env:"ADMIN_TOKEN"`

	// CacheTTLSeconds bounds the lifetime of cached public reads.
	CacheTTLSeconds int `env:"CACHE_TTL_SECONDS" envDefault:"60"`

	// SuggestRateLimit is the number of suggestion requests allowed per
	// client per minute.
	SuggestRateLimit int `env:"SUGGEST_RATE_LIMIT" envDefault:"5"`
}

// Conf holds the global configuration for the Top 5 API.
var Conf Config

func loadDotEnv() {
	// Load .env file at the root of the project into environment if present.
	// Does not override existing environ variables.
	path := os.Getenv("DOTENV_PATHS")
	if path != "" {
		err := godotenv.Load(strings.Split(path, ",")...)
		if err != nil {
			logger.Fatal(context.Background(), err.Error())
		}
	}
}

// InitConf initializes the global configuration by loading environment variables and .env files.
func InitConf() {
	loadDotEnv()

	if err := env.Parse(&Conf); err != nil {
		logger.Fatal(context.Background(), err.Error())
	}
}
