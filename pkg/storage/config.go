package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
)

// Storage drivers.
const (
	DriverFilesystem = "filesystem"
	DriverS3         = "s3"
)

// Config contains blob storage configuration.
type Config struct {
	// Driver selects the blob backend: "filesystem" or "s3".
	// Default: "filesystem"
	Driver string `toml:"driver"`

	// BasePath is the root directory for filesystem storage.
	// Default: ".data/blobs"
	BasePath      string `toml:"base_path"`
	MaxUploadSize string `toml:"max_upload_size"`

	// SigningSecret signs filesystem download tokens.
	SigningSecret string `toml:"signing_secret"`

	// LinkPrefix is the URL prefix filesystem download links are issued under.
	// Default: "/api/blobs"
	LinkPrefix string `toml:"link_prefix"`

	S3 S3Config `toml:"s3"`

	maxUploadSizeVal int64
}

// S3Config configures the S3 driver. Endpoint targets S3-compatible
// services such as MinIO or LocalStack and enables path-style addressing.
type S3Config struct {
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

// Env maps storage settings to environment variable names.
type Env struct {
	Driver        string
	BasePath      string
	MaxUploadSize string
	SigningSecret string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
}

// MaxUploadSizeBytes returns the parsed max_upload_size.
func (c *Config) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the storage configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if size, err := units.FromHumanSize(overlay.MaxUploadSize); err == nil {
		c.MaxUploadSize = overlay.MaxUploadSize
		c.maxUploadSizeVal = size
	}
	if overlay.SigningSecret != "" {
		c.SigningSecret = overlay.SigningSecret
	}
	if overlay.LinkPrefix != "" {
		c.LinkPrefix = overlay.LinkPrefix
	}
	if overlay.S3.Bucket != "" {
		c.S3.Bucket = overlay.S3.Bucket
	}
	if overlay.S3.Region != "" {
		c.S3.Region = overlay.S3.Region
	}
	if overlay.S3.Endpoint != "" {
		c.S3.Endpoint = overlay.S3.Endpoint
	}
	if overlay.S3.AccessKey != "" {
		c.S3.AccessKey = overlay.S3.AccessKey
	}
	if overlay.S3.SecretKey != "" {
		c.S3.SecretKey = overlay.S3.SecretKey
	}
}

func (c *Config) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverFilesystem
	}
	if c.BasePath == "" {
		c.BasePath = ".data/blobs"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "100MB"
	}
	if c.LinkPrefix == "" {
		c.LinkPrefix = "/api/blobs"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Driver, &c.Driver)
	set(env.BasePath, &c.BasePath)
	set(env.MaxUploadSize, &c.MaxUploadSize)
	set(env.SigningSecret, &c.SigningSecret)
	set(env.S3Bucket, &c.S3.Bucket)
	set(env.S3Region, &c.S3.Region)
	set(env.S3Endpoint, &c.S3.Endpoint)
	set(env.S3AccessKey, &c.S3.AccessKey)
	set(env.S3SecretKey, &c.S3.SecretKey)
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverFilesystem:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
		if c.SigningSecret == "" {
			return fmt.Errorf("signing_secret required for filesystem driver")
		}
	case DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket required for s3 driver")
		}
	default:
		return fmt.Errorf("invalid driver %q: must be filesystem or s3", c.Driver)
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size

	return nil
}

// defaultLinkTTL bounds signed links when callers pass a non-positive TTL.
const defaultLinkTTL = 15 * time.Minute
