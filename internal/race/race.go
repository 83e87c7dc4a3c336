// Package race implements the RACE binary command protocol used by the
// AKG N9 Hybrid to control chip-level audio features over a GATT
// characteristic pair. Packet builders are pure functions: they allocate
// the returned frame and nothing else.
package race

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// RACE frame constants.
const (
	Header       = 0x05 // first byte of every RACE frame
	TypeRequest  = 0x5A // request, response expected
	TypeResponse = 0x5B // response from the device

	// minResponseLen is the shortest frame IsResponseSuccess accepts:
	// header, type, length, race id plus a two-byte payload.
	minResponseLen = 8
)

// Race IDs addressed by this controller.
const (
	IDAncControl uint16 = 0x0E06
	IDAncStatus  uint16 = 0x0901
)

// ANC payload opcodes under IDAncControl.
const (
	opAncOn  = 0x0A
	opAncOff = 0x0B
)

// AncMode is the filter value the headset recognizes. Values 1-4 select
// noise-cancellation filters; 9-11 select pass-through filters.
type AncMode byte

const (
	Off          AncMode = 0
	Anc1         AncMode = 1
	Anc2         AncMode = 2
	Anc3         AncMode = 3
	Anc4         AncMode = 4
	PassThrough1 AncMode = 9
	PassThrough2 AncMode = 10
	PassThrough3 AncMode = 11
)

func (m AncMode) String() string {
	switch m {
	case Off:
		return "off"
	case Anc1, Anc2, Anc3, Anc4:
		return fmt.Sprintf("anc-%d", byte(m))
	case PassThrough1, PassThrough2, PassThrough3:
		return fmt.Sprintf("pass-through-%d", byte(m)-byte(PassThrough1)+1)
	default:
		return fmt.Sprintf("mode-%d", byte(m))
	}
}

// IsPassThrough reports whether m selects a pass-through filter.
func (m AncMode) IsPassThrough() bool {
	return m >= PassThrough1
}

// ErrNotPassThrough is returned by BuildPassThrough for modes below the
// pass-through filter range. This is a caller contract violation, not a
// transport error.
var ErrNotPassThrough = fmt.Errorf("race: mode is not a pass-through filter (want >= %d)", byte(PassThrough1))

// Encode frames a RACE request:
//
//	header(1) | type(1) | length(2, LE, = 2+len(payload)) | raceID(2, LE) | payload
func Encode(raceID uint16, payload []byte) []byte {
	buf := make([]byte, 0, 6+len(payload))
	buf = append(buf, Header, TypeRequest)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(2+len(payload)))
	buf = binary.LittleEndian.AppendUint16(buf, raceID)
	return append(buf, payload...)
}

// BuildAncOn builds the command enabling ANC with the given filter.
// Pass-through filters are accepted too: the device encodes pass-through
// as ANC-on with a filter value from the pass-through range.
func BuildAncOn(mode AncMode) []byte {
	return Encode(IDAncControl, []byte{0x00, opAncOn, byte(mode)})
}

// BuildAncOff builds the command disabling ANC entirely.
func BuildAncOff() []byte {
	return Encode(IDAncControl, []byte{0x00, opAncOff})
}

// BuildPassThrough builds the command enabling ambient pass-through with
// the given filter. It rejects modes below PassThrough1; otherwise the
// frame is identical to BuildAncOn(mode), which is how the protocol
// encodes pass-through.
func BuildPassThrough(mode AncMode) ([]byte, error) {
	if !mode.IsPassThrough() {
		return nil, fmt.Errorf("%w: got %s", ErrNotPassThrough, mode)
	}
	return BuildAncOn(mode), nil
}

// BuildGetAncStatus builds the ANC status query. The session does not
// currently issue it, but the capability is part of the protocol surface.
func BuildGetAncStatus() []byte {
	return Encode(IDAncStatus, []byte{0x00})
}

// IsResponseSuccess reports whether data looks like a well-formed RACE
// response. It fails closed on nil, short, or wrongly-typed input. The
// status byte inside the payload is deliberately not inspected: the
// device has never been observed to answer a well-typed response to a
// command it rejected, so "well-typed" stands in for "accepted".
func IsResponseSuccess(data []byte) bool {
	if len(data) < minResponseLen {
		return false
	}
	return data[1] == TypeResponse
}

// DisplayHex formats data as space-separated uppercase hex pairs for log
// output.
func DisplayHex(data []byte) string {
	var b strings.Builder
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}
