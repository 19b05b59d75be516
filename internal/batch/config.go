package batch

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config bounds batch uploads.
type Config struct {
	Concurrency int    `toml:"concurrency"`
	FileTimeout string `toml:"file_timeout"`
	MaxFiles    int    `toml:"max_files"`

	fileTimeoutVal time.Duration
}

// Env maps batch settings to environment variable names.
type Env struct {
	Concurrency string
	FileTimeout string
	MaxFiles    string
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
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if overlay.FileTimeout != "" {
		c.FileTimeout = overlay.FileTimeout
	}
	if overlay.MaxFiles != 0 {
		c.MaxFiles = overlay.MaxFiles
	}
}

// FileTimeoutDuration returns the per-file upload timeout.
func (c *Config) FileTimeoutDuration() time.Duration {
	return c.fileTimeoutVal
}

func (c *Config) loadDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = 3
	}
	if c.FileTimeout == "" {
		c.FileTimeout = "2m"
	}
	if c.MaxFiles == 0 {
		c.MaxFiles = 20
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Concurrency != "" {
		if n, err := strconv.Atoi(os.Getenv(env.Concurrency)); err == nil {
			c.Concurrency = n
		}
	}
	if env.FileTimeout != "" {
		if v := os.Getenv(env.FileTimeout); v != "" {
			c.FileTimeout = v
		}
	}
	if env.MaxFiles != "" {
		if n, err := strconv.Atoi(os.Getenv(env.MaxFiles)); err == nil {
			c.MaxFiles = n
		}
	}
}

func (c *Config) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.MaxFiles < 1 {
		return fmt.Errorf("max_files must be at least 1")
	}
	d, err := time.ParseDuration(c.FileTimeout)
	if err != nil {
		return fmt.Errorf("invalid file_timeout: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("file_timeout cannot be negative")
	}
	c.fileTimeoutVal = d
	return nil
}
