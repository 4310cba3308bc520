// Package config loads sgraph settings from defaults, an optional YAML file,
// an optional .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zheng/schemagraph/internal/rules"
	"github.com/zheng/schemagraph/pkg/logging"
)

// DefaultFile is read when no config path is given.
const DefaultFile = ".sgraph.yaml"

// Environment overrides
const (
	EnvDB             = "SGRAPH_DB"
	EnvLogLevel       = "SGRAPH_LOG_LEVEL"
	EnvPort           = "SGRAPH_PORT"
	EnvMaxConcurrency = "SGRAPH_MAX_CONCURRENCY"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Validation rules.Config  `yaml:"validation"`
	Storage    StorageConfig `yaml:"storage"`
	Server     ServerConfig  `yaml:"server"`
	LogLevel   string        `yaml:"logLevel"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Validation: *rules.DefaultConfig(),
		Storage:    StorageConfig{Path: ".sgraph.db"},
		Server:     ServerConfig{Host: "127.0.0.1", Port: 8080},
		LogLevel:   "info",
	}
}

// Load builds a Config from path (DefaultFile when empty) and the environment.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Debug("config", "no .env file loaded: %v", err)
	}

	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("config", "config file %s not found, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDB); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvPort, v)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvMaxConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvMaxConcurrency, v)
		}
		c.Validation.MaxConcurrency = n
	}
	return nil
}

// Validate checks every field and wraps failures in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage path is required", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validation.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
