package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting of the API server.
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8008"`
	DatabasePath    string        `env:"DATABASE_PATH" envDefault:"project-board.db"`
	SQLLog          bool          `env:"SQL_LOG" envDefault:"false"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"text"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	JWTSecret   string        `env:"JWT_SECRET"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"project-board-api"`
	JWTAudience string        `env:"JWT_AUDIENCE" envDefault:"project-board-clients"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// RedisURL enables the cross-instance relay backbone when set.
	RedisURL     string `env:"REDIS_URL"`
	RelayChannel string `env:"RELAY_CHANNEL" envDefault:"project-board:relay"`
	WSSendBuffer int    `env:"WS_SEND_BUFFER" envDefault:"64"`

	RateLimitRPS     float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst   int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	RateLimitIdleTTL time.Duration `env:"RATE_LIMIT_IDLE_TTL" envDefault:"10m"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: ADDR is required")
	case c.DatabasePath == "":
		return errors.New("config: DATABASE_PATH is required")
	case c.JWTSecret == "":
		return errors.New("config: JWT_SECRET is required")
	case c.TokenTTL <= 0:
		return errors.New("config: TOKEN_TTL must be positive")
	case c.WSSendBuffer <= 0:
		return errors.New("config: WS_SEND_BUFFER must be positive")
	case c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0:
		return errors.New("config: rate limit must be positive")
	case c.RelayChannel == "":
		return errors.New("config: RELAY_CHANNEL is required")
	}
	return nil
}
