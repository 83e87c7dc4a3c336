package ble

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"
)

// TinyGoAdapter wraps tinygo-org/bluetooth (BlueZ on Linux, CoreBluetooth
// on macOS, WinRT on Windows). On macOS, BLE device identifiers are
// CoreBluetooth UUIDs rather than MAC addresses; Device.ID carries
// whichever form the platform uses.
type TinyGoAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects the connections map.
	mu          sync.Mutex
	connections map[string]*tinygoConn // keyed by device identifier
}

// NewTinyGoAdapter creates a BLE adapter over the platform default adapter.
func NewTinyGoAdapter() *TinyGoAdapter {
	return &TinyGoAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*tinygoConn),
	}
}

func (a *TinyGoAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// Adapter-level link-status fanout. tinygo/bluetooth delivers both
	// connect and disconnect transitions here; route them to the
	// connection they belong to.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		id := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[id]
		a.mu.Unlock()
		if ok {
			conn.statusChanged(connected)
		}
	})

	return nil
}

func (a *TinyGoAdapter) ScanByName(ctx context.Context, name string) ([]Device, error) {
	var mu sync.Mutex
	var devices []Device
	seen := make(map[string]bool)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.adapter.StopScan()
		case <-done:
		}
	}()

	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if result.LocalName() != name {
			return
		}
		id := result.Address.String()
		mu.Lock()
		if seen[id] {
			mu.Unlock()
			return
		}
		seen[id] = true
		devices = append(devices, Device{
			Name: result.LocalName(),
			ID:   id,
			RSSI: int(result.RSSI),
		})
		mu.Unlock()
		// One match is enough; the session takes the first anyway.
		adapter.StopScan()
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	return devices, nil
}

func (a *TinyGoAdapter) Connect(ctx context.Context, id string) (Conn, error) {
	var addr bluetooth.Address
	addr.Set(id)

	// tinygo/bluetooth's Connect blocks internally with its own timeout.
	// Wrap it to also respect ctx cancellation.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		// The underlying Connect will eventually time out or succeed on
		// its own; it cannot be cancelled from here.
		return nil, fmt.Errorf("ble: connect to %s: %w", id, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", id, result.err)
		}
		conn := &tinygoConn{device: &result.device, connected: true}

		// Track the connection so the adapter-level status handler can
		// route link changes to it.
		a.mu.Lock()
		a.connections[id] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

// Compile-time check that TinyGoAdapter implements Adapter.
var _ Adapter = (*TinyGoAdapter)(nil)

type tinygoConn struct {
	device *bluetooth.Device

	mu        sync.Mutex
	connected bool
	statusCb  func(connected bool)
}

func (c *tinygoConn) statusChanged(connected bool) {
	c.mu.Lock()
	c.connected = connected
	cb := c.statusCb
	c.mu.Unlock()
	if cb != nil {
		cb(connected)
	}
}

func (c *tinygoConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *tinygoConn) OnStatusChanged(cb func(connected bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCb = cb
}

// DiscoverService queries the peripheral for the given service. tinygo's
// DiscoverServices always interrogates the device rather than a host-side
// cache, so the refresh flag is honored by construction here; it exists
// on the interface for backends that do cache GATT topology.
func (c *tinygoConn) DiscoverService(serviceUUID string, refresh bool) (Service, error) {
	uuid, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: parse service UUID: %w", err)
	}
	svcs, err := c.device.DiscoverServices([]bluetooth.UUID{uuid})
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("ble: service %s not found", serviceUUID)
	}
	return &tinygoService{svc: svcs[0]}, nil
}

func (c *tinygoConn) Disconnect() error {
	return c.device.Disconnect()
}

type tinygoService struct {
	svc bluetooth.DeviceService
}

func (s *tinygoService) DiscoverCharacteristic(charUUID string) (Characteristic, error) {
	uuid, err := bluetooth.ParseUUID(charUUID)
	if err != nil {
		return nil, fmt.Errorf("ble: parse characteristic UUID: %w", err)
	}
	chars, err := s.svc.DiscoverCharacteristics([]bluetooth.UUID{uuid})
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("ble: characteristic %s not found", charUUID)
	}
	return &tinygoCharacteristic{char: &chars[0]}, nil
}

type tinygoCharacteristic struct {
	char *bluetooth.DeviceCharacteristic
}

func (c *tinygoCharacteristic) Write(data []byte) error {
	_, err := c.char.WriteWithoutResponse(data)
	return err
}

func (c *tinygoCharacteristic) Subscribe(cb func(data []byte)) error {
	return c.char.EnableNotifications(func(buf []byte) {
		cb(buf)
	})
}

func (c *tinygoCharacteristic) Unsubscribe() error {
	return c.char.EnableNotifications(nil)
}
