// Package config loads the controller's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	LogLevel  string          `yaml:"log_level"`
}

// DeviceConfig identifies the headset and bounds the connection attempt.
type DeviceConfig struct {
	Name                  string `yaml:"name"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
}

// DiscoveryConfig controls the GATT service discovery retry loop.
type DiscoveryConfig struct {
	Attempts       int `yaml:"attempts"`
	BackoffSeconds int `yaml:"backoff_seconds"`
}

// ConnectTimeout returns the connect timeout as a duration.
func (d DeviceConfig) ConnectTimeout() time.Duration {
	return time.Duration(d.ConnectTimeoutSeconds) * time.Second
}

// Backoff returns the discovery backoff as a duration.
func (d DiscoveryConfig) Backoff() time.Duration {
	return time.Duration(d.BackoffSeconds) * time.Second
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ancctl")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:                  "AKG N9 Hybrid",
			ConnectTimeoutSeconds: 10,
		},
		Discovery: DiscoveryConfig{
			Attempts:       3,
			BackoffSeconds: 1,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.Name == "" {
		return fmt.Errorf("device.name must not be empty")
	}
	if c.Device.ConnectTimeoutSeconds <= 0 {
		return fmt.Errorf("device.connect_timeout_seconds must be > 0")
	}
	if c.Discovery.Attempts < 1 {
		return fmt.Errorf("discovery.attempts must be >= 1")
	}
	if c.Discovery.BackoffSeconds < 0 {
		return fmt.Errorf("discovery.backoff_seconds must be >= 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	return nil
}
