package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables. It attempts to
// load a .env file first for local development; in production the
// variables are injected directly.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d (must be 1-65535)", c.HTTPPort)
	}
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}
	if c.HTTPPort == c.MetricsPort {
		return fmt.Errorf("HTTP_PORT and METRICS_PORT must differ, both are %d", c.HTTPPort)
	}

	if c.AutosaveSeconds < 1 {
		return fmt.Errorf("invalid SESSION_AUTOSAVE_SECONDS: %d", c.AutosaveSeconds)
	}
	if c.SeasonCheckSeconds < 1 {
		return fmt.Errorf("invalid SESSION_SEASON_CHECK_SECONDS: %d", c.SeasonCheckSeconds)
	}
	if c.BoostSweepSeconds < 1 {
		return fmt.Errorf("invalid SESSION_BOOST_SWEEP_SECONDS: %d", c.BoostSweepSeconds)
	}
	if c.SessionIdleMinutes < 1 {
		return fmt.Errorf("invalid SESSION_IDLE_MINUTES: %d", c.SessionIdleMinutes)
	}

	if c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_PER_SECOND: %v", c.RateLimitPerSecond)
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %d", c.RateLimitBurst)
	}

	return nil
}
