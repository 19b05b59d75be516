package access

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls request authentication. Roles extends and overrides
// DefaultRoles.
//
// With Enabled false every request runs as the principal named by the
// X-Actor header (or anonymous) holding DevRoles.
type Config struct {
	Enabled  bool                `toml:"enabled"`
	Secret   string              `toml:"secret"`
	Issuer   string              `toml:"issuer"`
	DevRoles []string            `toml:"dev_roles"`
	Roles    map[string][]string `toml:"roles"`
}

// Env maps auth settings to environment variable names.
type Env struct {
	Enabled string
	Secret  string
	Issuer  string
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
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if len(overlay.DevRoles) > 0 {
		c.DevRoles = overlay.DevRoles
	}
	if len(overlay.Roles) > 0 {
		c.Roles = overlay.Roles
	}
}

// Policy builds the role capability policy.
func (c *Config) Policy() (*Policy, error) {
	return NewPolicy(c.Roles)
}

func (c *Config) loadDefaults() {
	if c.Roles == nil {
		c.Roles = make(map[string][]string)
	}
	for role, caps := range DefaultRoles() {
		if _, ok := c.Roles[role]; !ok {
			c.Roles[role] = caps
		}
	}
	if len(c.DevRoles) == 0 {
		c.DevRoles = []string{"admin"}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if b, err := strconv.ParseBool(os.Getenv(env.Enabled)); err == nil {
			c.Enabled = b
		}
	}
	if env.Secret != "" {
		if v := os.Getenv(env.Secret); v != "" {
			c.Secret = v
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
}

func (c *Config) validate() error {
	if c.Enabled && len(c.Secret) < 32 {
		return fmt.Errorf("secret must be at least 32 bytes when auth is enabled")
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	for _, role := range c.DevRoles {
		if _, ok := c.Roles[role]; !ok {
			return fmt.Errorf("dev role %q is not defined", role)
		}
	}
	return nil
}
