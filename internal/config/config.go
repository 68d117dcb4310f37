// Package config loads the inventory server settings from APP_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/auth"
)

// Defaults applied before the environment is read.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultAuthMode        = auth.ModeNone
)

// Environment variables read by Load.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvAuthMode        = "APP_AUTH_MODE"
	EnvBasicAuthUsers  = "APP_BASIC_AUTH_USERS"
	EnvAPIKeys         = "APP_API_KEYS" //nolint:gosec // env var name, not a credential
	EnvExportDir       = "APP_EXPORT_DIR"
	EnvSeedDemo        = "APP_SEED_DEMO"
)

// Config is the server configuration.
type Config struct {
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	AuthMode auth.Mode
	// "clerk:bcrypt_hash,clerk:bcrypt_hash"
	BasicAuthUsers string
	// "key:owner,key:owner"
	APIKeys string

	// ExportDir receives server-side exports. Empty disables POST /api/v1/export.
	ExportDir string
	// SeedDemo loads the demo catalogue at startup.
	SeedDemo bool
}

// Validation errors reported by Validate.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidAuthMode        = errors.New("auth mode must be one of: none, basic, apikey")
	ErrMissingBasicAuthUsers  = errors.New("basic auth users must be set when auth mode is basic")
	ErrMissingAPIKeys         = errors.New("API keys must be set when auth mode is apikey")
	ErrInvalidExportDir       = errors.New("export dir must be an existing directory")
)

// binding copies one non-empty environment value into the config.
type binding struct {
	env string
	set func(c *Config, val string) error
}

var bindings = []binding{
	{EnvServerPort, func(c *Config, val string) (err error) {
		c.ServerPort, err = strconv.Atoi(val)
		return err
	}},
	{EnvLogLevel, func(c *Config, val string) error {
		c.LogLevel = val
		return nil
	}},
	{EnvShutdownTimeout, func(c *Config, val string) (err error) {
		c.ShutdownTimeout, err = time.ParseDuration(val)
		return err
	}},
	{EnvMetricsEnabled, func(c *Config, val string) (err error) {
		c.MetricsEnabled, err = strconv.ParseBool(val)
		return err
	}},
	{EnvSeedDemo, func(c *Config, val string) (err error) {
		c.SeedDemo, err = strconv.ParseBool(val)
		return err
	}},
	{EnvAuthMode, func(c *Config, val string) error {
		c.AuthMode = auth.Mode(val)
		return nil
	}},
	{EnvBasicAuthUsers, func(c *Config, val string) error {
		c.BasicAuthUsers = val
		return nil
	}},
	{EnvAPIKeys, func(c *Config, val string) error {
		c.APIKeys = val
		return nil
	}},
	{EnvExportDir, func(c *Config, val string) error {
		c.ExportDir = val
		return nil
	}},
}

// Load applies APP_* variables over the defaults and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		AuthMode:        DefaultAuthMode,
	}

	for _, b := range bindings {
		val, ok := os.LookupEnv(b.env)
		if !ok || val == "" {
			continue
		}
		if err := b.set(cfg, val); err != nil {
			return nil, fmt.Errorf("parsing %s=%q: %w", b.env, val, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once. An empty AuthMode is
// replaced by DefaultAuthMode.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, ErrInvalidServerPort)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ErrInvalidLogLevel)
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, ErrInvalidShutdownTimeout)
	}

	if c.AuthMode == "" {
		c.AuthMode = DefaultAuthMode
	}
	switch {
	case !c.AuthMode.Valid():
		errs = append(errs, ErrInvalidAuthMode)
	case c.AuthMode == auth.ModeBasic && c.BasicAuthUsers == "":
		errs = append(errs, ErrMissingBasicAuthUsers)
	case c.AuthMode == auth.ModeAPIKey && c.APIKeys == "":
		errs = append(errs, ErrMissingAPIKeys)
	}

	if c.ExportDir != "" {
		if info, err := os.Stat(c.ExportDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidExportDir, c.ExportDir))
		}
	}

	return errors.Join(errs...)
}

// Address is the listen address for the configured port.
func (c *Config) Address() string {
	return ":" + strconv.Itoa(c.ServerPort)
}
