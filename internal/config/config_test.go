package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device.Name != "AKG N9 Hybrid" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "AKG N9 Hybrid")
	}
	if cfg.Device.ConnectTimeoutSeconds != 10 {
		t.Errorf("Device.ConnectTimeoutSeconds = %d, want 10", cfg.Device.ConnectTimeoutSeconds)
	}
	if cfg.Discovery.Attempts != 3 {
		t.Errorf("Discovery.Attempts = %d, want 3", cfg.Discovery.Attempts)
	}
	if cfg.Discovery.BackoffSeconds != 1 {
		t.Errorf("Discovery.BackoffSeconds = %d, want 1", cfg.Discovery.BackoffSeconds)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if cfg.Device.ConnectTimeout() != 10*time.Second {
		t.Errorf("ConnectTimeout() = %v, want 10s", cfg.Device.ConnectTimeout())
	}
	if cfg.Discovery.Backoff() != time.Second {
		t.Errorf("Backoff() = %v, want 1s", cfg.Discovery.Backoff())
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
device:
  name: "AKG N9 Hybrid 2"
  connect_timeout_seconds: 5
log_level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "AKG N9 Hybrid 2" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "AKG N9 Hybrid 2")
	}
	if cfg.Device.ConnectTimeoutSeconds != 5 {
		t.Errorf("Device.ConnectTimeoutSeconds = %d, want 5", cfg.Device.ConnectTimeoutSeconds)
	}
	// Unset fields keep their defaults.
	if cfg.Discovery.Attempts != 3 {
		t.Errorf("Discovery.Attempts = %d, want default 3", cfg.Discovery.Attempts)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() of missing file should error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty device name", func(c *Config) { c.Device.Name = "" }, "device.name"},
		{"zero timeout", func(c *Config) { c.Device.ConnectTimeoutSeconds = 0 }, "connect_timeout_seconds"},
		{"zero attempts", func(c *Config) { c.Discovery.Attempts = 0 }, "discovery.attempts"},
		{"negative backoff", func(c *Config) { c.Discovery.BackoffSeconds = -1 }, "backoff_seconds"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: Validate() error = %q, want mention of %q", tt.name, err, tt.wantErr)
		}
	}
}
