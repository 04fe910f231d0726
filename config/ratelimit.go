package config

import (
	"fmt"
	"time"
)

/* --------------------------------- Rate Limit Config Defaults -------------------------------- */

const (
	defaultRateLimit       = 300
	defaultRateLimitWindow = time.Minute
)

/* --------------------------------- Rate Limit Config Struct -------------------------------- */

// RateLimitConfig contains the fixed-window rate limiter's settings.
// The limit applies per (caller, route) key, cluster-wide.
type RateLimitConfig struct {
	Limit  int64         `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

/* --------------------------------- Rate Limit Config Private Helpers -------------------------------- */

func (c *RateLimitConfig) hydrateRateLimitDefaults() {
	if c.Limit == 0 {
		c.Limit = defaultRateLimit
	}
	if c.Window == 0 {
		c.Window = defaultRateLimitWindow
	}
}

// Validate ensures the window is usable by the fixed-window limiter, which
// derives window IDs from whole seconds.
func (c RateLimitConfig) Validate() error {
	if c.Window < time.Second {
		return fmt.Errorf("rate_limit_config window must be at least 1s, got %s", c.Window)
	}
	if c.Limit < 0 {
		return fmt.Errorf("rate_limit_config limit must not be negative")
	}
	return nil
}
