package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	MinCodeLength = 6
	MaxCodeLength = 8
)

type Config struct {
	Port                    int    `env:"PORT" envDefault:"3000"`
	AppEnv                  string `env:"APP_ENV" envDefault:"development"`
	PairingTTLSeconds       int    `env:"PAIRING_TTL_SECONDS" envDefault:"300"`
	PairingCodeLength       int    `env:"PAIRING_CODE_LENGTH" envDefault:"6"`
	PairingRetentionSeconds int    `env:"PAIRING_RETENTION_SECONDS" envDefault:"60"`
	SweepIntervalSeconds    int    `env:"SWEEP_INTERVAL_SECONDS" envDefault:"30"`
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
	RedisURL                string `env:"REDIS_URL"`
	DatabaseURL             string `env:"DATABASE_URL"`
	PremiumCodesFile        string `env:"PREMIUM_CODES_FILE" envDefault:"premium-codes.json"`
	StaticDir               string `env:"STATIC_DIR" envDefault:"public"`
	RateLimitPerMin         int    `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	WSAllowedOrigins        string `env:"WS_ALLOWED_ORIGINS"`
}

func (c *Config) PairingTTL() time.Duration {
	return time.Duration(c.PairingTTLSeconds) * time.Second
}

func (c *Config) PairingRetention() time.Duration {
	return time.Duration(c.PairingRetentionSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// AllowedOrigins splits WS_ALLOWED_ORIGINS into trimmed, non-empty entries.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.WSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) Validate() error {
	if c.PairingTTLSeconds <= 0 {
		return fmt.Errorf("PAIRING_TTL_SECONDS must be positive, got %d", c.PairingTTLSeconds)
	}
	if c.PairingCodeLength < MinCodeLength || c.PairingCodeLength > MaxCodeLength {
		return fmt.Errorf("PAIRING_CODE_LENGTH must be between %d and %d, got %d",
			MinCodeLength, MaxCodeLength, c.PairingCodeLength)
	}
	if c.PairingRetentionSeconds < 0 {
		return fmt.Errorf("PAIRING_RETENTION_SECONDS must not be negative, got %d", c.PairingRetentionSeconds)
	}
	if c.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must be positive, got %d", c.SweepIntervalSeconds)
	}
	if c.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must be positive, got %d", c.RateLimitPerMin)
	}

	if c.IsProduction() {
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: rate limiting is per process")
		} else if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.DatabaseURL == "" {
			log.Warn().Str("file", c.PremiumCodesFile).Msg("DATABASE_URL is empty in production: premium codes are read from a local file")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
