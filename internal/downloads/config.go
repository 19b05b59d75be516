package downloads

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls download links and the action replay cache.
type Config struct {
	LinkTTL        string `toml:"link_ttl"`
	CacheSize      int    `toml:"cache_size"`
	IdempotencyTTL string `toml:"idempotency_ttl"`

	linkTTL        time.Duration
	idempotencyTTL time.Duration
}

// Env maps download settings to environment variable names.
type Env struct {
	LinkTTL        string
	CacheSize      string
	IdempotencyTTL string
}

// Finalize applies defaults, loads environment overrides, and validates.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.LinkTTL != "" {
		c.LinkTTL = overlay.LinkTTL
	}
	if overlay.CacheSize != 0 {
		c.CacheSize = overlay.CacheSize
	}
	if overlay.IdempotencyTTL != "" {
		c.IdempotencyTTL = overlay.IdempotencyTTL
	}
}

func (c *Config) LinkTTLDuration() time.Duration {
	return c.linkTTL
}

func (c *Config) IdempotencyTTLDuration() time.Duration {
	return c.idempotencyTTL
}

func (c *Config) loadDefaults() {
	if c.LinkTTL == "" {
		c.LinkTTL = "15m"
	}
	if c.CacheSize == 0 {
		c.CacheSize = 1024
	}
	if c.IdempotencyTTL == "" {
		c.IdempotencyTTL = "10m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.LinkTTL != "" {
		if v := os.Getenv(env.LinkTTL); v != "" {
			c.LinkTTL = v
		}
	}
	if env.CacheSize != "" {
		if n, err := strconv.Atoi(os.Getenv(env.CacheSize)); err == nil {
			c.CacheSize = n
		}
	}
	if env.IdempotencyTTL != "" {
		if v := os.Getenv(env.IdempotencyTTL); v != "" {
			c.IdempotencyTTL = v
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.LinkTTL)
	if err != nil {
		return fmt.Errorf("invalid link_ttl: %w", err)
	}
	if d < time.Second {
		return fmt.Errorf("link_ttl must be at least 1s")
	}
	c.linkTTL = d

	d, err = time.ParseDuration(c.IdempotencyTTL)
	if err != nil {
		return fmt.Errorf("invalid idempotency_ttl: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("idempotency_ttl must be positive")
	}
	c.idempotencyTTL = d

	if c.CacheSize < 1 {
		return fmt.Errorf("cache_size must be positive")
	}
	return nil
}
