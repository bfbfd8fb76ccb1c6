package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Backend di persistenza supportati.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Config contiene le impostazioni runtime per game-svc.
type Config struct {
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":50061"`
	Store    string `env:"STORE" envDefault:"postgres"`

	DBDSN      string `env:"DB_DSN"`
	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"require"`

	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	RedisMaxRetries int    `env:"REDIS_MAX_RETRIES" envDefault:"8"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"highlow.events"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load legge le variabili d'ambiente con default minimi.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBDSN == "" {
		cfg.DBDSN = cfg.buildDSN()
	}

	switch cfg.Store {
	case StorePostgres:
		if cfg.DBDSN == "" {
			return Config{}, fmt.Errorf("DB_DSN or DB_HOST/DB_USER/DB_NAME required with STORE=%s", cfg.Store)
		}
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return Config{}, fmt.Errorf("REDIS_ADDR required with STORE=%s", cfg.Store)
		}
	case StoreMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
	return cfg, nil
}

func (c Config) buildDSN() string {
	if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}
