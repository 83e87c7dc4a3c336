package race

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuildAncOnWireExample(t *testing.T) {
	// "enable ANC mode 1": race id 0x0E06, payload 00 0A 01, length 5.
	got := BuildAncOn(Anc1)
	want := []byte{0x05, 0x5A, 0x05, 0x00, 0x06, 0x0E, 0x00, 0x0A, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildAncOn(Anc1) = %s, want %s", DisplayHex(got), DisplayHex(want))
	}
}

func TestBuildAncOnAllFilters(t *testing.T) {
	for _, mode := range []AncMode{Anc1, Anc2, Anc3, Anc4} {
		got := BuildAncOn(mode)
		if len(got) != 9 {
			t.Errorf("BuildAncOn(%s) length = %d, want 9", mode, len(got))
		}
		// length field = 2 + 3-byte payload
		if got[2] != 0x05 || got[3] != 0x00 {
			t.Errorf("BuildAncOn(%s) length field = %02x %02x, want 05 00", mode, got[2], got[3])
		}
		payload := got[6:]
		want := []byte{0x00, 0x0A, byte(mode)}
		if !bytes.Equal(payload, want) {
			t.Errorf("BuildAncOn(%s) payload = %s, want %s", mode, DisplayHex(payload), DisplayHex(want))
		}
	}
}

func TestBuildAncOff(t *testing.T) {
	got := BuildAncOff()
	want := []byte{0x05, 0x5A, 0x04, 0x00, 0x06, 0x0E, 0x00, 0x0B}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildAncOff() = %s, want %s", DisplayHex(got), DisplayHex(want))
	}
}

func TestBuildPassThroughMatchesAncOn(t *testing.T) {
	for _, mode := range []AncMode{PassThrough1, PassThrough2, PassThrough3} {
		got, err := BuildPassThrough(mode)
		if err != nil {
			t.Fatalf("BuildPassThrough(%s) error = %v", mode, err)
		}
		if !bytes.Equal(got, BuildAncOn(mode)) {
			t.Errorf("BuildPassThrough(%s) = %s, want BuildAncOn frame %s",
				mode, DisplayHex(got), DisplayHex(BuildAncOn(mode)))
		}
	}
}

func TestBuildPassThroughRejectsAncFilters(t *testing.T) {
	for _, mode := range []AncMode{Off, Anc1, Anc2, Anc3, Anc4} {
		got, err := BuildPassThrough(mode)
		if !errors.Is(err, ErrNotPassThrough) {
			t.Errorf("BuildPassThrough(%s) error = %v, want ErrNotPassThrough", mode, err)
		}
		if got != nil {
			t.Errorf("BuildPassThrough(%s) returned a frame alongside the error", mode)
		}
	}
}

func TestBuildGetAncStatus(t *testing.T) {
	got := BuildGetAncStatus()
	want := []byte{0x05, 0x5A, 0x03, 0x00, 0x01, 0x09, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildGetAncStatus() = %s, want %s", DisplayHex(got), DisplayHex(want))
	}
}

func TestEncodeFraming(t *testing.T) {
	tests := []struct {
		name    string
		raceID  uint16
		payload []byte
		want    []byte
	}{
		{"empty payload", 0x0E06, nil, []byte{0x05, 0x5A, 0x02, 0x00, 0x06, 0x0E}},
		{"one byte", 0x0901, []byte{0x00}, []byte{0x05, 0x5A, 0x03, 0x00, 0x01, 0x09, 0x00}},
		{"length crosses a byte", 0x1234, make([]byte, 0x100),
			append([]byte{0x05, 0x5A, 0x02, 0x01, 0x34, 0x12}, make([]byte, 0x100)...)},
	}
	for _, tt := range tests {
		got := Encode(tt.raceID, tt.payload)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%s: Encode() = %s, want %s", tt.name, DisplayHex(got), DisplayHex(tt.want))
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	a := Encode(0x0E06, []byte{0x00, 0x0A, 0x01})
	b := Encode(0x0E06, []byte{0x00, 0x0A, 0x01})
	if !bytes.Equal(a, b) {
		t.Error("Encode() is not deterministic for identical input")
	}
	// Distinct inputs must yield distinct frames.
	if bytes.Equal(Encode(0x0E06, []byte{0x01}), Encode(0x0E07, []byte{0x01})) {
		t.Error("Encode() collided on distinct race ids")
	}
	if bytes.Equal(Encode(0x0E06, []byte{0x01}), Encode(0x0E06, []byte{0x02})) {
		t.Error("Encode() collided on distinct payloads")
	}
}

func TestIsResponseSuccess(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"nil input", nil, false},
		{"empty input", []byte{}, false},
		{"seven bytes", []byte{0x05, 0x5B, 0x03, 0x00, 0x06, 0x0E, 0x00}, false},
		{"request type", []byte{0x05, 0x5A, 0x04, 0x00, 0x06, 0x0E, 0x00, 0x00}, false},
		{"garbage type", []byte{0x05, 0xFF, 0x04, 0x00, 0x06, 0x0E, 0x00, 0x00}, false},
		{"valid response", []byte{0x05, 0x5B, 0x04, 0x00, 0x06, 0x0E, 0x00, 0x00}, true},
		{"longer response", []byte{0x05, 0x5B, 0x06, 0x00, 0x06, 0x0E, 0x00, 0x00, 0x01, 0x02}, true},
	}
	for _, tt := range tests {
		if got := IsResponseSuccess(tt.data); got != tt.want {
			t.Errorf("%s: IsResponseSuccess(%s) = %v, want %v", tt.name, DisplayHex(tt.data), got, tt.want)
		}
	}
}

func TestDisplayHex(t *testing.T) {
	if got := DisplayHex([]byte{0x05, 0x5A, 0xFF, 0x00}); got != "05 5A FF 00" {
		t.Errorf("DisplayHex() = %q, want %q", got, "05 5A FF 00")
	}
	if got := DisplayHex(nil); got != "" {
		t.Errorf("DisplayHex(nil) = %q, want empty", got)
	}
}

func TestAncModeString(t *testing.T) {
	tests := []struct {
		mode AncMode
		want string
	}{
		{Off, "off"},
		{Anc3, "anc-3"},
		{PassThrough1, "pass-through-1"},
		{PassThrough3, "pass-through-3"},
		{AncMode(42), "mode-42"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("AncMode(%d).String() = %q, want %q", byte(tt.mode), got, tt.want)
		}
	}
}
