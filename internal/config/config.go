package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kode4food/bizunit/internal/store/keyvalue"
	"github.com/kode4food/bizunit/internal/store/relational"
)

type (
	// Config holds configuration settings for the bizunit server
	Config struct {
		// API Server
		APIHost  string
		APIPort  int
		LogLevel string
		Debug    bool

		// Plans
		PlanBucketURL string
		PlanPrefix    string
		PlanCacheSize int

		// Collaborators. An empty address, DSN or URL leaves the
		// collaborator unconfigured
		KV              keyvalue.Config
		SQLDriver       string
		SQLDSN          string
		ObjectBucketURL string
		ObjectPrefix    string

		// Engine
		ScriptCacheSize int
		HTTPTimeout     time.Duration
		ShutdownTimeout time.Duration
	}
)

const (
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultPlanBucketURL   = "file:///var/lib/bizunit/plans"
	DefaultPlanExtension   = ".json"
	DefaultPlanCacheSize   = 1024
	DefaultScriptCacheSize = 4096
	DefaultRedisPrefix     = "bizunit"
	DefaultRedisDB         = 0
	MaxRedisDB             = 15

	MaxPlanCacheSize   = 1_000_000
	MaxScriptCacheSize = 1_000_000
	MaxHTTPTimeout     = 10 * time.Minute
	MaxShutdownTimeout = 10 * time.Minute
)

var (
	ErrInvalidAPIPort         = errors.New("invalid API port")
	ErrMissingPlanBucket      = errors.New("plan bucket URL is required")
	ErrInvalidPlanCacheSize   = errors.New("plan cache size must be positive")
	ErrInvalidScriptCacheSize = errors.New(
		"script cache size must be positive",
	)
	ErrInvalidHTTPTimeout = errors.New("HTTP timeout must be positive")
	ErrMissingSQLDriver   = errors.New("SQL driver is required with a DSN")
	ErrInvalidEnvValue    = errors.New("invalid environment value")
)

// NewDefaultConfig creates a configuration with sensible defaults for the
// server, plan catalog and engine. No collaborators are configured
func NewDefaultConfig() *Config {
	return &Config{
		APIPort:       DefaultAPIPort,
		APIHost:       DefaultAPIHost,
		LogLevel:      "info",
		PlanBucketURL: DefaultPlanBucketURL,
		PlanCacheSize: DefaultPlanCacheSize,
		KV: keyvalue.Config{
			DB:     DefaultRedisDB,
			Prefix: DefaultRedisPrefix,
		},
		SQLDriver:       relational.DefaultDriver,
		ScriptCacheSize: DefaultScriptCacheSize,
		HTTPTimeout:     DefaultHTTPTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	loadEnvString("API_HOST", &c.APIHost)
	loadEnvString("LOG_LEVEL", &c.LogLevel)
	loadEnvString("PLAN_BUCKET_URL", &c.PlanBucketURL)
	loadEnvString("PLAN_PREFIX", &c.PlanPrefix)
	loadEnvString("SQL_DRIVER", &c.SQLDriver)
	loadEnvString("SQL_DSN", &c.SQLDSN)
	loadEnvString("OBJECT_BUCKET_URL", &c.ObjectBucketURL)
	loadEnvString("OBJECT_PREFIX", &c.ObjectPrefix)
	LoadRedisConfigFromEnv(&c.KV, "KV")

	if err := loadEnvBool("DEBUG", &c.Debug); err != nil {
		return err
	}
	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"KV_REDIS_DB", &c.KV.DB, -1, MaxRedisDB,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"PLAN_CACHE_SIZE", &c.PlanCacheSize, 0, MaxPlanCacheSize,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"SCRIPT_CACHE_SIZE", &c.ScriptCacheSize, 0, MaxScriptCacheSize,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"HTTP_TIMEOUT", &c.HTTPTimeout, MaxHTTPTimeout,
	); err != nil {
		return err
	}
	return loadEnvDuration(
		"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout, MaxShutdownTimeout,
	)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.PlanBucketURL == "" {
		return ErrMissingPlanBucket
	}

	if c.PlanCacheSize <= 0 {
		return ErrInvalidPlanCacheSize
	}

	if c.ScriptCacheSize <= 0 {
		return ErrInvalidScriptCacheSize
	}

	if c.HTTPTimeout <= 0 {
		return ErrInvalidHTTPTimeout
	}

	if c.SQLDSN != "" && c.SQLDriver == "" {
		return ErrMissingSQLDriver
	}

	return nil
}

// PlanKey returns the object key holding the document of the named plan
func (c *Config) PlanKey(name string) string {
	return c.PlanPrefix + name + DefaultPlanExtension
}

// LoadRedisConfigFromEnv loads Redis connection settings from environment
// variables with the given prefix (e.g., "KV")
func LoadRedisConfigFromEnv(s *keyvalue.Config, prefix string) {
	loadEnvString(prefix+"_REDIS_ADDR", &s.Addr)
	loadEnvString(prefix+"_REDIS_PASSWORD", &s.Password)
	loadEnvString(prefix+"_REDIS_PREFIX", &s.Prefix)
}

func loadEnvString(key string, dst *string) {
	if s := os.Getenv(key); s != "" {
		*dst = s
	}
}

func loadEnvBool(key string, dst *bool) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("%w: %s: %q", ErrInvalidEnvValue, key, s)
	}
	*dst = v
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %q", ErrInvalidEnvValue, key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("%w: %s: %d out of range [%d, %d]",
			ErrInvalidEnvValue, key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

// loadEnvDuration accepts Go duration syntax ("5s", "1m30s")
func loadEnvDuration(key string, dst *time.Duration, max time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %s: %q", ErrInvalidEnvValue, key, s)
	}
	if v <= 0 || v > max {
		return fmt.Errorf("%w: %s: %s out of range", ErrInvalidEnvValue, key, v)
	}
	*dst = v
	return nil
}
