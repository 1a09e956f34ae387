// Package config loads the process-wide settings: a YAML file with
// environment overrides on top, validated once at start.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/filestore"
	"github.com/koustreak/biconnector/internal/logger"
	"go.yaml.in/yaml/v3"
)

// Cache drivers.
const (
	CacheDriverMemory = "memory"
	CacheDriverFile   = "file"
	CacheDriverS3     = "s3"
)

// Config is the root of the configuration tree.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RateLimitRPS is the sustained per-client rate. 0 disables limiting.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// LogConfig mirrors logger.Config without the writer.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig holds settings applied to every opened connection.
type DatabaseConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// CacheConfig selects and configures the schema cache store.
type CacheConfig struct {
	Driver              string        `yaml:"driver"`
	Dir                 string        `yaml:"dir"`
	TableListTTL        time.Duration `yaml:"table_list_ttl"`
	TableDescriptionTTL time.Duration `yaml:"table_description_ttl"`
	S3                  S3Config      `yaml:"s3"`
}

// S3Config points the object-store cache at a MinIO/S3 bucket.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			ConnectTimeout: database.DefaultConnectTimeout,
		},
		Cache: CacheConfig{
			Driver:              CacheDriverFile,
			Dir:                 "./cache",
			TableListTTL:        time.Hour,
			TableDescriptionTTL: 30 * time.Minute,
			S3: S3Config{
				Bucket: "biconnector-cache",
			},
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from a CLI flag
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from the environment. Durations accept either
// a plain number of seconds or a Go duration string.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := parseDuration(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "invalid "+key, err)
		}
		*dst = d
		return nil
	}

	str("LISTEN_ADDR", &c.Server.ListenAddr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("CACHE_DRIVER", &c.Cache.Driver)
	str("CACHE_DIR", &c.Cache.Dir)
	str("CACHE_S3_ENDPOINT", &c.Cache.S3.Endpoint)
	str("CACHE_S3_ACCESS_KEY", &c.Cache.S3.AccessKey)
	str("CACHE_S3_SECRET_KEY", &c.Cache.S3.SecretKey)
	str("CACHE_S3_BUCKET", &c.Cache.S3.Bucket)
	str("CACHE_S3_PREFIX", &c.Cache.S3.Prefix)
	str("CACHE_S3_REGION", &c.Cache.S3.Region)

	for key, dst := range map[string]*time.Duration{
		"CACHE_TTL_TABLE_LIST":        &c.Cache.TableListTTL,
		"CACHE_TTL_TABLE_DESCRIPTION": &c.Cache.TableDescriptionTTL,
		"DB_CONNECTION_TIMEOUT":       &c.Database.ConnectTimeout,
		"SHUTDOWN_TIMEOUT":            &c.Server.ShutdownTimeout,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("CACHE_S3_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "invalid CACHE_S3_USE_SSL", err)
		}
		c.Cache.S3.UseSSL = b
	}
	if v, ok := lookup("RATE_LIMIT_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "invalid RATE_LIMIT_RPS", err)
		}
		c.Server.RateLimitRPS = f
	}
	if v, ok := lookup("RATE_LIMIT_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "invalid RATE_LIMIT_BURST", err)
		}
		c.Server.RateLimitBurst = n
	}
	return nil
}

func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return errs.New(errs.ErrKindInvalidInput, "listen address is required")
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return errs.New(errs.ErrKindInvalidInput, "rate limit values must not be negative")
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst == 0 {
		return errs.New(errs.ErrKindInvalidInput, "RATE_LIMIT_BURST must be set when RATE_LIMIT_RPS is")
	}
	if c.Database.ConnectTimeout <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "connect timeout must be positive")
	}
	if c.Cache.TableListTTL <= 0 || c.Cache.TableDescriptionTTL <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "cache TTLs must be positive")
	}

	switch strings.ToLower(c.Cache.Driver) {
	case CacheDriverMemory:
	case CacheDriverFile:
		if c.Cache.Dir == "" {
			return errs.New(errs.ErrKindInvalidInput, "cache dir is required for the file driver")
		}
	case CacheDriverS3:
		if c.Cache.S3.Endpoint == "" || c.Cache.S3.Bucket == "" {
			return errs.New(errs.ErrKindInvalidInput, "cache s3 endpoint and bucket are required for the s3 driver")
		}
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown cache driver: %s", c.Cache.Driver)
	}
	return nil
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = strings.ToLower(c.Log.Level)
	lc.Format = strings.ToLower(c.Log.Format)
	return lc
}

// ConnectOptions returns the options applied to every database connection.
func (c *Config) ConnectOptions() database.Options {
	return database.Options{ConnectTimeout: c.Database.ConnectTimeout}
}

// FileStoreConfig returns the object storage settings for the s3 driver.
func (c *Config) FileStoreConfig() *filestore.Config {
	s3 := c.Cache.S3
	return &filestore.Config{
		Endpoint:  s3.Endpoint,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Region:    s3.Region,
		UseSSL:    s3.UseSSL,
		Bucket:    s3.Bucket,
		Prefix:    s3.Prefix,
	}
}
