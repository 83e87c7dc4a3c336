// ancctl controls the ANC behavior of an AKG N9 Hybrid headset over BLE.
//
// Usage:
//
//	ancctl [flags] <command>
//
// Commands:
//
//	scan               check whether the headset is advertising
//	on [1-4]           enable ANC with the given filter (default 1)
//	off                disable ANC
//	passthrough <1-3>  enable ambient pass-through with the given filter
//	toggle             switch ANC on with the default filter
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jason5545/Headphones-Controls/internal/ble"
	"github.com/jason5545/Headphones-Controls/internal/config"
	"github.com/jason5545/Headphones-Controls/internal/race"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/ancctl/config.yaml)")
	device := flag.String("device", "", "device name override")
	timeout := flag.Duration("timeout", 0, "connect timeout override (e.g. 15s)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *device != "" {
		cfg.Device.Name = *device
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	connectTimeout := cfg.Device.ConnectTimeout()
	if *timeout > 0 {
		connectTimeout = *timeout
	}

	slog.SetLogLoggerLevel(parseLogLevel(cfg.LogLevel))

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, connectTimeout, args); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}

func run(cfg *config.Config, connectTimeout time.Duration, args []string) error {
	adapter := ble.NewTinyGoAdapter()
	ctx := context.Background()

	if args[0] == "scan" {
		return scan(ctx, adapter, cfg.Device.Name, connectTimeout)
	}

	session := ble.NewSession(adapter, ble.SessionOptions{
		DiscoveryAttempts: cfg.Discovery.Attempts,
		DiscoveryBackoff:  cfg.Discovery.Backoff(),
	})
	defer session.Close()

	log.Printf("Connecting to %q (timeout %s)...", cfg.Device.Name, connectTimeout)
	if err := session.Connect(ctx, cfg.Device.Name, connectTimeout); err != nil {
		return err
	}

	switch cmd := args[0]; cmd {
	case "on":
		mode := race.Anc1
		if len(args) > 1 {
			m, err := parseFilter(args[1], 1, 4)
			if err != nil {
				return err
			}
			mode = race.AncMode(m)
		}
		if err := session.EnableANC(mode); err != nil {
			return err
		}
		log.Printf("ANC enabled (%s)", mode)
	case "off":
		if err := session.DisableANC(); err != nil {
			return err
		}
		log.Println("ANC disabled")
	case "passthrough":
		if len(args) < 2 {
			return fmt.Errorf("passthrough requires a filter (1-3)")
		}
		m, err := parseFilter(args[1], 1, 3)
		if err != nil {
			return err
		}
		mode := race.PassThrough1 + race.AncMode(m-1)
		if err := session.EnablePassThrough(mode); err != nil {
			return err
		}
		log.Printf("Pass-through enabled (%s)", mode)
	case "toggle":
		if err := session.ToggleANC(); err != nil {
			return err
		}
		log.Println("ANC toggled on")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// scan reports whether the configured headset is currently advertising.
func scan(ctx context.Context, adapter *ble.TinyGoAdapter, name string, timeout time.Duration) error {
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Printf("Scanning for %q...", name)
	devices, err := adapter.ScanByName(scanCtx, name)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("no device advertising %q found", name)
	}
	for _, d := range devices {
		fmt.Printf("%s  %s  RSSI %d\n", d.ID, d.Name, d.RSSI)
	}
	return nil
}

func parseFilter(arg string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("filter must be %d-%d, got %q", lo, hi, arg)
	}
	return n, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	return config.Default(), nil
}
