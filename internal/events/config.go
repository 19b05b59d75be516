package events

import (
	"fmt"
	"os"
)

// Config selects where events go beyond the structured log.
type Config struct {
	Record   bool   `toml:"record"`
	RedisURL string `toml:"redis_url"`
	Channel  string `toml:"channel"`
}

// Env maps event settings to environment variable names.
type Env struct {
	Record   string
	RedisURL string
	Channel  string
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
	if overlay.Record {
		c.Record = true
	}
	if overlay.RedisURL != "" {
		c.RedisURL = overlay.RedisURL
	}
	if overlay.Channel != "" {
		c.Channel = overlay.Channel
	}
}

// Publish reports whether a Redis publisher is configured.
func (c *Config) Publish() bool {
	return c.RedisURL != ""
}

func (c *Config) loadDefaults() {
	if c.Channel == "" {
		c.Channel = "casefile.versions"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Record != "" {
		if v := os.Getenv(env.Record); v != "" {
			c.Record = v == "true" || v == "1"
		}
	}
	if env.RedisURL != "" {
		if v := os.Getenv(env.RedisURL); v != "" {
			c.RedisURL = v
		}
	}
	if env.Channel != "" {
		if v := os.Getenv(env.Channel); v != "" {
			c.Channel = v
		}
	}
}

func (c *Config) validate() error {
	if c.Channel == "" {
		return fmt.Errorf("channel required")
	}
	return nil
}
