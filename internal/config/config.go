// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads go-shamir settings from a YAML file, SHAMIR_*
// environment variables and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-shamir/pkg/logger"
	"github.com/jeremyhahn/go-shamir/pkg/rand"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
	"github.com/jeremyhahn/go-shamir/pkg/storage/file"
	"github.com/jeremyhahn/go-shamir/pkg/storage/memory"
)

// EnvPrefix prefixes every environment override, e.g. SHAMIR_RNG_MODE.
const EnvPrefix = "SHAMIR"

// Config is the complete application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	RNG       RNGConfig       `mapstructure:"rng" yaml:"rng"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Split     SplitConfig     `mapstructure:"split" yaml:"split"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json, text
}

// RNGConfig selects the random source used for splitting
type RNGConfig struct {
	Mode         string       `mapstructure:"mode" yaml:"mode"`
	FallbackMode string       `mapstructure:"fallback_mode" yaml:"fallback_mode"`
	PKCS11       PKCS11Config `mapstructure:"pkcs11" yaml:"pkcs11"`
	TPM2         TPM2Config   `mapstructure:"tpm2" yaml:"tpm2"`
}

// PKCS11Config contains HSM RNG settings
type PKCS11Config struct {
	Module string `mapstructure:"module" yaml:"module"`
	SlotID uint   `mapstructure:"slot_id" yaml:"slot_id"`
	PIN    string `mapstructure:"pin" yaml:"pin"`
}

// TPM2Config contains TPM RNG settings
type TPM2Config struct {
	Device        string `mapstructure:"device" yaml:"device"`
	UseSimulator  bool   `mapstructure:"use_simulator" yaml:"use_simulator"`
	SimulatorHost string `mapstructure:"simulator_host" yaml:"simulator_host"`
	SimulatorPort int    `mapstructure:"simulator_port" yaml:"simulator_port"`
}

// StorageConfig selects where share sets are kept
type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // file, memory
	Path    string `mapstructure:"path" yaml:"path"`
}

// SplitConfig tunes the dealer
type SplitConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// ServerConfig contains REST listener settings
type ServerConfig struct {
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
	TLSCert string `mapstructure:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key" yaml:"tls_key"`
}

// RateLimitConfig contains REST rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_min" yaml:"requests_per_min"`
	Burst             int  `mapstructure:"burst" yaml:"burst"`
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		RNG: RNGConfig{
			Mode: string(rand.ModeAuto),
			TPM2: TPM2Config{
				Device:        "/dev/tpmrm0",
				SimulatorHost: "localhost",
				SimulatorPort: 2321,
			},
		},
		Storage:   StorageConfig{Backend: "file", Path: "shamir-data"},
		Split:     SplitConfig{Workers: 1},
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8480},
		RateLimit: RateLimitConfig{Enabled: false, RequestsPerMinute: 600, Burst: 20},
		Metrics:   MetricsConfig{Enabled: true},
	}
}

// Load reads path (optional) and SHAMIR_* overrides into a validated Config.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so flags bound to v
// take precedence over the file and environment.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("rng.mode", d.RNG.Mode)
	v.SetDefault("rng.fallback_mode", d.RNG.FallbackMode)
	v.SetDefault("rng.pkcs11.module", d.RNG.PKCS11.Module)
	v.SetDefault("rng.pkcs11.slot_id", d.RNG.PKCS11.SlotID)
	v.SetDefault("rng.pkcs11.pin", d.RNG.PKCS11.PIN)
	v.SetDefault("rng.tpm2.device", d.RNG.TPM2.Device)
	v.SetDefault("rng.tpm2.use_simulator", d.RNG.TPM2.UseSimulator)
	v.SetDefault("rng.tpm2.simulator_host", d.RNG.TPM2.SimulatorHost)
	v.SetDefault("rng.tpm2.simulator_port", d.RNG.TPM2.SimulatorPort)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("split.workers", d.Split.Workers)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.tls_cert", d.Server.TLSCert)
	v.SetDefault("server.tls_key", d.Server.TLSKey)
	v.SetDefault("ratelimit.enabled", d.RateLimit.Enabled)
	v.SetDefault("ratelimit.requests_per_min", d.RateLimit.RequestsPerMinute)
	v.SetDefault("ratelimit.burst", d.RateLimit.Burst)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, error, or fatal)", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	if _, err := rand.ParseMode(c.RNG.Mode); err != nil {
		return err
	}
	if c.RNG.FallbackMode != "" {
		if _, err := rand.ParseMode(c.RNG.FallbackMode); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
	}
	if (c.RNG.Mode == string(rand.ModePKCS11) || c.RNG.FallbackMode == string(rand.ModePKCS11)) &&
		c.RNG.PKCS11.Module == "" {
		return errors.New("rng.pkcs11.module is required for the pkcs11 RNG")
	}

	switch c.Storage.Backend {
	case "memory":
	case "file":
		if c.Storage.Path == "" {
			return errors.New("storage path must be specified for the file backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be file or memory)", c.Storage.Backend)
	}

	if c.Split.Workers < 1 {
		return fmt.Errorf("split workers must be at least 1, got %d", c.Split.Workers)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return errors.New("server.tls_cert and server.tls_key must be set together")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("invalid rate limit: %d requests per minute", c.RateLimit.RequestsPerMinute)
	}
	return nil
}

// RandConfig converts the rng section into a pkg/rand configuration.
func (c *Config) RandConfig() *rand.Config {
	cfg := &rand.Config{
		Mode:         rand.Mode(c.RNG.Mode),
		FallbackMode: rand.Mode(c.RNG.FallbackMode),
		TPM2Config: &rand.TPM2Config{
			Device:        c.RNG.TPM2.Device,
			UseSimulator:  c.RNG.TPM2.UseSimulator,
			SimulatorHost: c.RNG.TPM2.SimulatorHost,
			SimulatorPort: c.RNG.TPM2.SimulatorPort,
		},
	}
	if c.RNG.PKCS11.Module != "" {
		cfg.PKCS11Config = &rand.PKCS11Config{
			Module: c.RNG.PKCS11.Module,
			SlotID: c.RNG.PKCS11.SlotID,
			PIN:    c.RNG.PKCS11.PIN,
		}
	}
	return cfg
}

// NewLogger builds the configured logger writing to w.
func (c *Config) NewLogger(w io.Writer) logger.Logger {
	level, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		level = logger.LevelInfo
	}
	return logger.NewSlogAdapter(&logger.SlogConfig{
		Level:  level,
		Format: strings.ToLower(c.Logging.Format),
		Output: w,
	})
}

// NewStorage opens the configured share set backend.
func (c *Config) NewStorage() (storage.Backend, error) {
	switch c.Storage.Backend {
	case "memory":
		return memory.New(), nil
	case "file":
		return file.New(c.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
}
