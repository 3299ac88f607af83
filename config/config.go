package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`
	Port     string `env:"PORT"      envDefault:"8080"  validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// DatabaseURL is optional; without it the onboarding flag lives in memory.
	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=Env production"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	VerificationMode string `env:"VERIFICATION_MODE" envDefault:"otp" validate:"oneof=stub otp"`
	SendLatencyMS    int    `env:"SEND_LATENCY_MS"   envDefault:"1500" validate:"min=0,max=60000"`
	VerifyLatencyMS  int    `env:"VERIFY_LATENCY_MS" envDefault:"1500" validate:"min=0,max=60000"`

	ResendCooldownSec int `env:"RESEND_COOLDOWN_SEC" envDefault:"59" validate:"min=0,max=600"`
	CodeLength        int `env:"CODE_LENGTH"         envDefault:"6"  validate:"min=4,max=8"`
	SplashDelayMS     int `env:"SPLASH_DELAY_MS"     envDefault:"300" validate:"min=0,max=10000"`

	SessionIdleTimeoutSec int    `env:"SESSION_IDLE_TIMEOUT_SEC" envDefault:"900" validate:"min=10"`
	ReaperSchedule        string `env:"REAPER_SCHEDULE"          envDefault:"@every 1m" validate:"required"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) SendLatency() time.Duration {
	return time.Duration(c.SendLatencyMS) * time.Millisecond
}

func (c *Config) VerifyLatency() time.Duration {
	return time.Duration(c.VerifyLatencyMS) * time.Millisecond
}

func (c *Config) ResendCooldown() int {
	return c.ResendCooldownSec
}

func (c *Config) SplashDelay() time.Duration {
	return time.Duration(c.SplashDelayMS) * time.Millisecond
}

func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutSec) * time.Second
}
