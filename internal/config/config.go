// Package config loads the optional YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-user directory holding config and snapshots
	DirName = ".reqbook"
	// FileName is the config file inside DirName
	FileName = "config.yaml"

	DefaultStorage = "json"
	DefaultScheme  = "https"
	DefaultTimeout = 30 * time.Second
)

// Config represents the reqbook configuration. Every key is optional.
type Config struct {
	DataDir         string `yaml:"data_dir,omitempty"`
	Storage         string `yaml:"storage,omitempty"`
	Scheme          string `yaml:"scheme,omitempty"`
	Timeout         string `yaml:"timeout,omitempty"` // Go duration, e.g. "10s"
	FollowRedirects *bool  `yaml:"follow_redirects,omitempty"`
	Debug           *bool  `yaml:"debug,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		Storage: DefaultStorage,
		Scheme:  DefaultScheme,
	}
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects defaults to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetDebug defaults to false
func (c *Config) GetDebug() bool {
	return getBool(c.Debug, false)
}

// GetTimeout parses Timeout, falling back to DefaultTimeout when unset
func (c *Config) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

// GetDataDir returns DataDir with a leading ~ expanded, defaulting to ~/.reqbook
func (c *Config) GetDataDir() (string, error) {
	if c.DataDir != "" {
		return expandHome(c.DataDir)
	}
	return DefaultDir()
}

// Validate checks the enumerated keys
func (c *Config) Validate() error {
	switch c.Storage {
	case "", "json", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend %q (want json or sqlite)", c.Storage)
	}
	switch c.Scheme {
	case "", "http", "https":
	default:
		return fmt.Errorf("unsupported scheme %q (want http or https)", c.Scheme)
	}
	if _, err := c.GetTimeout(); err != nil {
		return err
	}
	return nil
}

// DefaultDir returns ~/.reqbook
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// DefaultPath returns ~/.reqbook/config.yaml
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the config file at path, or the default path when empty.
// A missing file yields DefaultConfig.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func expandHome(p string) (string, error) {
	if p == "~" || len(p) > 1 && p[0] == '~' && os.IsPathSeparator(p[1]) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
