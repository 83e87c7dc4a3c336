// Package ble manages the GATT session with an AKG N9 Hybrid headset. It
// owns the connection lifecycle (scan, connect, service discovery,
// notification subscription, teardown) and issues RACE command frames to
// the headset's vendor characteristic pair.
package ble

import "context"

// Airoha RACE GATT UUIDs advertised by the headset.
const (
	ServiceUUID    = "5052494d-2dab-0341-6972-6f6861424c45"
	WriteCharUUID  = "43484152-2dab-3141-6972-6f6861424c45"
	NotifyCharUUID = "43484152-2dab-3241-6972-6f6861424c45"
)

// Characteristic represents a resolved BLE GATT characteristic.
type Characteristic interface {
	// Write sends data to the characteristic. A nil return means the
	// adapter acknowledged delivery.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
	// Unsubscribe cancels a previous Subscribe.
	Unsubscribe() error
}

// Service represents a resolved GATT service on a connected peripheral.
type Service interface {
	// DiscoverCharacteristic finds the first characteristic with the
	// given UUID within this service.
	DiscoverCharacteristic(charUUID string) (Characteristic, error)
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Name string
	ID   string // platform device identifier (MAC on Linux, UUID on macOS)
	RSSI int
}

// Conn represents an active BLE connection to a peripheral.
type Conn interface {
	// Connected reports the adapter-level link state at call time.
	Connected() bool
	// OnStatusChanged registers a callback invoked whenever the adapter
	// reports a link state change.
	OnStatusChanged(callback func(connected bool))
	// DiscoverService finds the service with the given UUID. When refresh
	// is true the peripheral is queried directly, bypassing any GATT
	// topology cache the platform keeps from earlier sessions.
	DiscoverService(serviceUUID string, refresh bool) (Service, error)
	// Disconnect terminates the connection.
	Disconnect() error
}

// Adapter abstracts the platform BLE stack for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// ScanByName discovers BLE peripherals advertising the given local
	// name, until ctx is cancelled or a match is found.
	ScanByName(ctx context.Context, name string) ([]Device, error)
	// Connect establishes a connection to the device with the given identifier.
	Connect(ctx context.Context, id string) (Conn, error)
}
