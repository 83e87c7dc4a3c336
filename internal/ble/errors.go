package ble

import (
	"errors"
	"fmt"
)

// Session error kinds. Lower-layer adapter faults are translated into
// these during Connect; callers never need to interpret adapter-specific
// errors beyond the wrapped cause.
var (
	// ErrDeviceNotFound means the scan produced zero matching devices.
	ErrDeviceNotFound = errors.New("ble: device not found in scan")
	// ErrConnectTimeout means the adapter never reported the link as
	// established within the connect timeout.
	ErrConnectTimeout = errors.New("ble: timed out waiting for connection")
	// ErrConnectRefused means the adapter reported a disconnect before it
	// ever reported the link as established.
	ErrConnectRefused = errors.New("ble: device disconnected during connection attempt")
	// ErrServiceNotFound means every service discovery attempt failed.
	ErrServiceNotFound = errors.New("ble: RACE service not found")
	// ErrSubscriptionFailed means the adapter rejected the notification
	// subscription write.
	ErrSubscriptionFailed = errors.New("ble: notification subscription failed")
	// ErrNotConnected means the session is not in the Ready state.
	ErrNotConnected = errors.New("ble: not connected")
	// ErrClosed means the session was torn down and cannot be reused.
	ErrClosed = errors.New("ble: session closed")
)

// CharacteristicNotFoundError reports which of the two RACE
// characteristics was missing from the discovered service.
type CharacteristicNotFoundError struct {
	Role string // "write" or "notify"
	UUID string
}

func (e *CharacteristicNotFoundError) Error() string {
	return fmt.Sprintf("ble: %s characteristic %s not found", e.Role, e.UUID)
}

// WriteRejectedError reports a characteristic write the adapter did not
// acknowledge, carrying the adapter's status when available.
type WriteRejectedError struct {
	Err error
}

func (e *WriteRejectedError) Error() string {
	return fmt.Sprintf("ble: write rejected by adapter: %v", e.Err)
}

func (e *WriteRejectedError) Unwrap() error { return e.Err }

// AdapterError wraps an unexpected fault from the platform BLE stack.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("ble: adapter %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
