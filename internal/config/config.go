// Package config loads fxlens configuration: defaults, then a YAML file,
// then FXLENS_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dtnitsch/fxlens/pkg/pipeline"
	"github.com/dtnitsch/fxlens/pkg/rates"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

const (
	EnvPrefix         = "FXLENS_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Config is the full application configuration.
type Config struct {
	DB       DBConfig        `koanf:"db"`
	Rates    rates.Config    `koanf:"rates"`
	Pipeline pipeline.Config `koanf:"pipeline"`
	Server   ServerConfig    `koanf:"server"`
	Log      LogConfig       `koanf:"log"`
	Settings SettingsConfig  `koanf:"settings"`
}

// DBConfig locates the SQLite database. Empty means the default path.
type DBConfig struct {
	Path string `koanf:"path"`
}

// ServerConfig configures the HTTP message API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SettingsConfig points at an optional YAML settings file that is watched
// and applied to the settings store.
type SettingsConfig struct {
	File string `koanf:"file"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Rates:    rates.DefaultConfig(),
		Pipeline: pipeline.DefaultConfig(),
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8787,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultPath returns ~/.config/fxlens/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "fxlens", "config.yaml"), nil
}

// Load builds a Config. An empty path uses DefaultPath, which may be
// missing; an explicit path must exist.
//
// Environment variables map onto keys by splitting on the first
// underscore after the prefix:
//
//	FXLENS_RATES_CACHE_TTL -> rates.cache_ttl
//	FXLENS_SERVER_PORT     -> server.port
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	k := koanf.New(".")

	content, err := readConfigFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Rates.BaseURL == "" {
		errs = append(errs, errors.New("rates.base_url is required"))
	}
	if c.Rates.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("rates.cache_ttl must not be negative: %s", c.Rates.CacheTTL))
	}
	if c.Rates.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("rates.refresh_interval must not be negative: %s", c.Rates.RefreshInterval))
	}
	if c.Rates.Burst < 0 {
		errs = append(errs, fmt.Errorf("rates.burst must not be negative: %d", c.Rates.Burst))
	}
	if c.Pipeline.Debounce < 0 {
		errs = append(errs, fmt.Errorf("pipeline.debounce must not be negative: %s", c.Pipeline.Debounce))
	}
	return errors.Join(errs...)
}
