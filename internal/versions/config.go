package versions

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config controls upload policy and adapter behavior.
type Config struct {
	MaxFileSize         string   `toml:"max_file_size"`
	AllowedExtensions   []string `toml:"allowed_extensions"`
	AllowedContentTypes []string `toml:"allowed_content_types"`
	OperationTimeout    string   `toml:"operation_timeout"`
	Store               string   `toml:"store"`

	maxFileSizeVal int64
	timeoutVal     time.Duration
}

// Env maps version settings to environment variable names.
type Env struct {
	MaxFileSize         string
	AllowedExtensions   string
	AllowedContentTypes string
	OperationTimeout    string
	Store               string
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
	if overlay.MaxFileSize != "" {
		c.MaxFileSize = overlay.MaxFileSize
	}
	if overlay.AllowedExtensions != nil {
		c.AllowedExtensions = overlay.AllowedExtensions
	}
	if overlay.AllowedContentTypes != nil {
		c.AllowedContentTypes = overlay.AllowedContentTypes
	}
	if overlay.OperationTimeout != "" {
		c.OperationTimeout = overlay.OperationTimeout
	}
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
}

// Policy returns the upload allow-list derived from the configuration.
func (c *Config) Policy() Policy {
	return NewPolicy(c.maxFileSizeVal, c.AllowedExtensions, c.AllowedContentTypes)
}

// Timeout returns the per-operation adapter timeout.
func (c *Config) Timeout() time.Duration {
	return c.timeoutVal
}

func (c *Config) loadDefaults() {
	if c.MaxFileSize == "" {
		c.MaxFileSize = "25MB"
	}
	if c.AllowedExtensions == nil {
		c.AllowedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".docx"}
	}
	if c.AllowedContentTypes == nil {
		c.AllowedContentTypes = []string{
			"application/pdf",
			"image/png",
			"image/jpeg",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		}
	}
	if c.OperationTimeout == "" {
		c.OperationTimeout = "15s"
	}
	if c.Store == "" {
		c.Store = StorePostgres
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := lookup(env.MaxFileSize); v != "" {
		c.MaxFileSize = v
	}
	if v := lookup(env.AllowedExtensions); v != "" {
		c.AllowedExtensions = strings.Split(v, ",")
	}
	if v := lookup(env.AllowedContentTypes); v != "" {
		c.AllowedContentTypes = strings.Split(v, ",")
	}
	if v := lookup(env.OperationTimeout); v != "" {
		c.OperationTimeout = v
	}
	if v := lookup(env.Store); v != "" {
		c.Store = v
	}
}

func (c *Config) validate() error {
	size, err := units.FromHumanSize(c.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	c.maxFileSizeVal = size

	timeout, err := time.ParseDuration(c.OperationTimeout)
	if err != nil {
		return fmt.Errorf("invalid operation_timeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("operation_timeout must be positive")
	}
	c.timeoutVal = timeout

	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("invalid store %q: must be postgres or memory", c.Store)
	}
	return nil
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
