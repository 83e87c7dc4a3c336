package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jason5545/Headphones-Controls/internal/race"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateConnecting
	StateServiceDiscovery
	StateReady
	StateDisconnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateServiceDiscovery:
		return "service-discovery"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state-%d", int(s))
	}
}

// SessionOptions configures the session's connect behavior.
type SessionOptions struct {
	DiscoveryAttempts int           // service discovery tries per connect
	DiscoveryBackoff  time.Duration // delay after a failed discovery attempt
}

// DefaultSessionOptions returns the defaults used against real hardware.
// Service discovery on the N9 is flaky on the first connection after
// power-on, hence the retry budget.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		DiscoveryAttempts: 3,
		DiscoveryBackoff:  time.Second,
	}
}

// Session owns one GATT connection to one headset. It is not safe for
// concurrent use: callers must serialize Connect and the command
// operations. Close may be called from any state and at any time.
type Session struct {
	adapter Adapter
	opts    SessionOptions

	mu         sync.Mutex
	state      State
	conn       Conn
	writeChar  Characteristic
	notifyChar Characteristic

	// closed releases any in-flight connect wait and the status observer
	// when Close is called.
	closed chan struct{}
}

// NewSession creates a session over the given adapter.
func NewSession(adapter Adapter, opts SessionOptions) *Session {
	if opts.DiscoveryAttempts <= 0 {
		opts.DiscoveryAttempts = 3
	}
	if opts.DiscoveryBackoff <= 0 {
		opts.DiscoveryBackoff = time.Second
	}
	return &Session{
		adapter: adapter,
		opts:    opts,
		closed:  make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect scans for a device advertising deviceName, connects to the
// first match, resolves the RACE service and its characteristic pair,
// and subscribes to notifications. On success the session is Ready and
// all acquired resources are valid; on any failure nothing is retained
// and the session returns to Idle. timeout bounds both the scan and the
// wait for the adapter's "connected" signal.
func (s *Session) Connect(ctx context.Context, deviceName string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := s.begin(); err != nil {
		return err
	}

	if err := s.adapter.Enable(); err != nil {
		s.abort(nil)
		return &AdapterError{Op: "enable", Err: err}
	}

	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	devices, err := s.adapter.ScanByName(scanCtx, deviceName)
	cancel()
	if err != nil {
		s.abort(nil)
		return &AdapterError{Op: "scan", Err: err}
	}
	if len(devices) == 0 {
		s.abort(nil)
		return fmt.Errorf("%w: %q", ErrDeviceNotFound, deviceName)
	}
	// First match wins; no signal-strength ranking.
	dev := devices[0]
	slog.Info("[BLE] device found", "name", dev.Name, "id", dev.ID, "rssi", dev.RSSI)

	s.setState(StateConnecting)
	conn, err := s.adapter.Connect(ctx, dev.ID)
	if err != nil {
		s.abort(nil)
		return &AdapterError{Op: "connect", Err: err}
	}

	statusCh := make(chan bool, 4)
	conn.OnStatusChanged(func(connected bool) {
		select {
		case statusCh <- connected:
		default:
		}
	})

	if !conn.Connected() {
		if err := s.waitConnected(ctx, statusCh, timeout); err != nil {
			s.abort(conn)
			return err
		}
	}

	s.setState(StateServiceDiscovery)
	svc, err := s.discoverService(conn)
	if err != nil {
		s.abort(conn)
		return err
	}

	writeChar, err := svc.DiscoverCharacteristic(WriteCharUUID)
	if err != nil {
		s.abort(conn)
		return &CharacteristicNotFoundError{Role: "write", UUID: WriteCharUUID}
	}
	notifyChar, err := svc.DiscoverCharacteristic(NotifyCharUUID)
	if err != nil {
		s.abort(conn)
		return &CharacteristicNotFoundError{Role: "notify", UUID: NotifyCharUUID}
	}

	if err := notifyChar.Subscribe(s.handleNotification); err != nil {
		s.abort(conn)
		return fmt.Errorf("%w: %v", ErrSubscriptionFailed, err)
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		_ = notifyChar.Unsubscribe()
		_ = conn.Disconnect()
		return ErrClosed
	}
	s.conn = conn
	s.writeChar = writeChar
	s.notifyChar = notifyChar
	s.state = StateReady
	s.mu.Unlock()

	go s.observeStatus(statusCh)

	slog.Info("[BLE] session ready", "device", dev.Name)
	return nil
}

// waitConnected races the adapter's connection-status signal against the
// timeout. A "disconnected" signal arriving first means the device
// refused or dropped the attempt.
func (s *Session) waitConnected(ctx context.Context, statusCh <-chan bool, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case connected := <-statusCh:
		if !connected {
			return ErrConnectRefused
		}
		return nil
	case <-timer.C:
		return ErrConnectTimeout
	case <-ctx.Done():
		return &AdapterError{Op: "connect", Err: ctx.Err()}
	case <-s.closed:
		return ErrClosed
	}
}

// discoverService queries the peripheral for the RACE service, bypassing
// any cached GATT topology: the headset's service layout can change
// across firmware updates, so a cached answer is never trusted.
func (s *Session) discoverService(conn Conn) (Service, error) {
	var lastErr error
	for attempt := 1; attempt <= s.opts.DiscoveryAttempts; attempt++ {
		svc, err := conn.DiscoverService(ServiceUUID, true)
		if err == nil {
			return svc, nil
		}
		lastErr = err
		if attempt < s.opts.DiscoveryAttempts {
			slog.Warn("[BLE] service discovery failed, retrying",
				"attempt", attempt, "error", err)
			time.Sleep(s.opts.DiscoveryBackoff)
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrServiceNotFound, s.opts.DiscoveryAttempts, lastErr)
}

// EnableANC switches active noise cancellation on with the given filter.
func (s *Session) EnableANC(mode race.AncMode) error {
	return s.Send(race.BuildAncOn(mode))
}

// DisableANC switches active noise cancellation off.
func (s *Session) DisableANC() error {
	return s.Send(race.BuildAncOff())
}

// EnablePassThrough switches ambient pass-through on with the given
// filter. mode must be one of the pass-through values.
func (s *Session) EnablePassThrough(mode race.AncMode) error {
	packet, err := race.BuildPassThrough(mode)
	if err != nil {
		return err
	}
	return s.Send(packet)
}

// ToggleANC switches ANC on with the default filter. It does not query
// the device's current state first, so toggling from an ANC-on state
// re-sends ANC on.
func (s *Session) ToggleANC() error {
	return s.EnableANC(race.Anc1)
}

// Send writes one RACE frame to the headset. The result is the adapter's
// write acknowledgement only; the device's RACE response arrives later
// as a notification and is not correlated back to this call.
func (s *Session) Send(packet []byte) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateReady || s.writeChar == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	writeChar := s.writeChar
	s.mu.Unlock()

	slog.Debug("[BLE] write", "packet", race.DisplayHex(packet))
	if err := writeChar.Write(packet); err != nil {
		return &WriteRejectedError{Err: err}
	}
	return nil
}

// IsConnected reports whether the session is Ready and the adapter still
// sees the link as up. A drop the adapter reported while no operation
// was in flight is discovered here and moves the session to Disconnected.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.conn == nil {
		return false
	}
	if !s.conn.Connected() {
		slog.Warn("[BLE] adapter reports link down, marking session disconnected")
		s.state = StateDisconnected
		return false
	}
	return true
}

// Close tears the session down from any state: unsubscribes
// notifications, releases any pending connect wait, disconnects, and
// clears the characteristic references. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	if s.notifyChar != nil {
		if err := s.notifyChar.Unsubscribe(); err != nil {
			slog.Warn("[BLE] unsubscribe on close failed", "error", err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Disconnect(); err != nil {
			slog.Warn("[BLE] disconnect on close failed", "error", err)
		}
	}
	s.conn = nil
	s.writeChar = nil
	s.notifyChar = nil
	s.state = StateClosed
	close(s.closed)
	return nil
}

// begin validates that a connect cycle may start and enters Scanning.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle, StateDisconnected:
	case StateClosed:
		return ErrClosed
	default:
		return fmt.Errorf("ble: connect attempted in state %s", s.state)
	}
	s.conn = nil
	s.writeChar = nil
	s.notifyChar = nil
	s.state = StateScanning
	return nil
}

// abort unwinds a failed connect cycle. conn may be nil if the failure
// happened before a connection was obtained.
func (s *Session) abort(conn Conn) {
	if conn != nil {
		_ = conn.Disconnect()
	}
	s.mu.Lock()
	if s.state != StateClosed {
		s.state = StateIdle
	}
	s.mu.Unlock()
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	if s.state != StateClosed {
		s.state = st
	}
	s.mu.Unlock()
}

// observeStatus logs adapter link-state changes after the connect window.
// It never re-enters the state machine: a drop is picked up reactively by
// IsConnected or the next Send.
func (s *Session) observeStatus(statusCh <-chan bool) {
	for {
		select {
		case <-s.closed:
			return
		case connected := <-statusCh:
			if connected {
				slog.Debug("[BLE] link status changed", "connected", true)
			} else {
				slog.Warn("[BLE] device reported disconnected")
			}
		}
	}
}

// handleNotification decodes RACE responses arriving on the notify
// characteristic. Responses are observational only: they are not matched
// to the command that caused them, so a device-side rejection shows up
// here in the log rather than as an operation error.
func (s *Session) handleNotification(data []byte) {
	if race.IsResponseSuccess(data) {
		slog.Info("[BLE] command response", "data", race.DisplayHex(data))
	} else {
		slog.Warn("[BLE] malformed notification", "data", race.DisplayHex(data))
	}
}
