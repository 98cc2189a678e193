package usb

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestDecodeString(t *testing.T) {
	tests := []struct {
		name    string
		desc    []byte
		want    string
		wantErr bool
	}{
		{
			name: "ascii",
			desc: EncodeString("AVRUSBBoot"),
			want: "AVRUSBBoot",
		},
		{
			name: "latin-1 is kept",
			desc: EncodeString("Grüße"),
			want: "Grüße",
		},
		{
			name: "raw latin-1 unit",
			desc: []byte{8, DescriptorTypeString, 'c', 0, 0xE9, 0x00, 'e', 0},
			want: "c\u00e9e",
		},
		{
			name: "outside latin-1 is replaced",
			desc: EncodeString("a€b"),
			want: "a?b",
		},
		{
			name: "surrogate pair becomes two replacements",
			desc: EncodeString("x😀"),
			want: "x??",
		},
		{
			name: "bLength truncates trailing data",
			desc: append([]byte{6, DescriptorTypeString, 'a', 0, 'b', 0}, 'c', 0),
			want: "ab",
		},
		{
			name: "odd trailing byte is ignored",
			desc: []byte{5, DescriptorTypeString, 'a', 0, 'b'},
			want: "a",
		},
		{
			name: "empty string",
			desc: []byte{2, DescriptorTypeString},
			want: "",
		},
		{
			name:    "wrong descriptor type",
			desc:    []byte{4, DescriptorTypeDevice, 'a', 0},
			wantErr: true,
		},
		{
			name:    "too short",
			desc:    []byte{2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeString(tt.desc)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeStringLimit(t *testing.T) {
	desc := EncodeString(strings.Repeat("x", 300))
	if len(desc) != 254 {
		t.Errorf("len = %d, want 254", len(desc))
	}
	if int(desc[0]) != len(desc) {
		t.Errorf("bLength = %d, want %d", desc[0], len(desc))
	}
}

func TestDeviceDescString(t *testing.T) {
	d := DeviceDesc{Bus: 1, Address: 7, Vendor: 0x16C0, Product: 0x05DC}
	if got, want := d.String(), "bus 001 device 007: ID 16c0:05dc"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// descriptorHandle answers standard descriptor requests from fixed data.
type descriptorHandle struct {
	device  []byte
	strings map[uint8][]byte
	calls   int
}

func (h *descriptorHandle) Desc() DeviceDesc { return DeviceDesc{} }

func (h *descriptorHandle) StringDescriptor(index uint8, langID uint16) ([]byte, error) {
	return ReadStringDescriptor(h, index, langID)
}

func (h *descriptorHandle) Control(rType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	h.calls++
	if rType != RequestDirectionIn || request != RequestGetDescriptor {
		return 0, ErrTimeout
	}
	switch value >> 8 {
	case DescriptorTypeDevice:
		return copy(data, h.device), nil
	case DescriptorTypeString:
		return copy(data, h.strings[uint8(value)]), nil
	}
	return 0, ErrTimeout
}

func (h *descriptorHandle) Close() error { return nil }

func TestReadStringIndices(t *testing.T) {
	device := make([]byte, DeviceDescriptorSize)
	device[0] = DeviceDescriptorSize
	device[1] = DescriptorTypeDevice
	device[manufacturerIndexOffset] = 1
	device[productIndexOffset] = 2

	h := &descriptorHandle{device: device}
	mfr, prod, err := readStringIndices(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mfr != 1 || prod != 2 {
		t.Errorf("indices = %d, %d; want 1, 2", mfr, prod)
	}

	h.device = device[:8]
	if _, _, err := readStringIndices(h); err == nil {
		t.Error("expected error for short device descriptor")
	}
}

func TestReadStringDescriptor(t *testing.T) {
	want := EncodeString("www.fischl.de")
	h := &descriptorHandle{strings: map[uint8][]byte{1: want}}

	got, err := h.StringDescriptor(1, 0x0409)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("descriptor = % X, want % X", got, want)
	}
}

// Integration test - only runs with real hardware
func TestGoUSBBusIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	// gousb panics when libusb cannot be initialized (no usbfs in containers).
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("libusb unavailable: %v", r)
		}
	}()

	bus := NewGoUSBBus()
	defer bus.Close()

	devices, err := bus.Devices()
	if err != nil {
		t.Skipf("USB enumeration unavailable: %v", err)
	}

	t.Logf("Found %d USB device(s)", len(devices))
	for _, d := range devices {
		t.Logf("  %s", d)
	}
}
