// Package usb defines the small USB capability the bootloader needs and
// implements it on top of libusb via gousb.
//
// The bootloader logic only sees the Bus and Handle interfaces, which keeps it
// testable against the in-memory devices of package usbsim.
package usb

import (
	"errors"
	"fmt"
	"time"
)

// Standard USB request constants used for descriptor reads.
const (
	// RequestDirectionIn marks a device-to-host control transfer
	RequestDirectionIn = 0x80

	// RequestGetDescriptor is the standard GET_DESCRIPTOR request
	RequestGetDescriptor = 0x06

	// DescriptorTypeDevice selects the device descriptor
	DescriptorTypeDevice = 0x01

	// DescriptorTypeString selects a string descriptor
	DescriptorTypeString = 0x03

	// DeviceDescriptorSize is the length of a standard device descriptor
	DeviceDescriptorSize = 18

	// MaxDescriptorSize is the largest descriptor bLength can express
	MaxDescriptorSize = 255

	// DescriptorTimeout bounds descriptor reads
	DescriptorTimeout = time.Second
)

// Offsets of the string indices within the device descriptor.
const (
	manufacturerIndexOffset = 14
	productIndexOffset      = 15
)

var (
	// ErrOpen wraps every failure to open a device.
	ErrOpen = errors.New("usb: cannot open device")

	// ErrTimeout is matched when a transfer did not complete in time.
	ErrTimeout = errors.New("usb: transfer timed out")

	// ErrClosed is returned by transfers on a closed handle.
	ErrClosed = errors.New("usb: handle is closed")
)

// DeviceDesc identifies one attached device.
type DeviceDesc struct {
	Bus     int
	Address int
	Vendor  uint16
	Product uint16

	// ManufacturerIndex and ProductIndex are string descriptor indices.
	// They are only known once the device has been opened.
	ManufacturerIndex uint8
	ProductIndex      uint8
}

func (d DeviceDesc) String() string {
	return fmt.Sprintf("bus %03d device %03d: ID %04x:%04x", d.Bus, d.Address, d.Vendor, d.Product)
}

// Bus enumerates and opens devices.
type Bus interface {
	// Devices lists attached devices without opening them.
	Devices() ([]DeviceDesc, error)

	// Open starts a session with the device. Errors match ErrOpen.
	Open(desc DeviceDesc) (Handle, error)
}

// Handle is an open device session. A Handle must be closed exactly once by
// its owner; Close is safe to call again.
type Handle interface {
	// Desc returns the descriptor with string indices filled in.
	Desc() DeviceDesc

	// StringDescriptor reads the raw string descriptor at index.
	StringDescriptor(index uint8, langID uint16) ([]byte, error)

	// Control performs a control transfer on endpoint 0 and returns the number
	// of bytes transferred. Timeouts match ErrTimeout.
	Control(rType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error)

	// Close releases the device.
	Close() error
}

// ReadStringDescriptor issues a GET_DESCRIPTOR(STRING) request through h.
func ReadStringDescriptor(h Handle, index uint8, langID uint16) ([]byte, error) {
	buf := make([]byte, MaxDescriptorSize)
	n, err := h.Control(RequestDirectionIn, RequestGetDescriptor,
		DescriptorTypeString<<8|uint16(index), langID, buf, DescriptorTimeout)
	if err != nil {
		return nil, fmt.Errorf("read string descriptor %d: %w", index, err)
	}
	return buf[:n], nil
}

// readStringIndices fetches the device descriptor and returns the
// manufacturer and product string indices.
func readStringIndices(h Handle) (manufacturer, product uint8, err error) {
	buf := make([]byte, DeviceDescriptorSize)
	n, err := h.Control(RequestDirectionIn, RequestGetDescriptor,
		DescriptorTypeDevice<<8, 0, buf, DescriptorTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("read device descriptor: %w", err)
	}
	if n < DeviceDescriptorSize {
		return 0, 0, fmt.Errorf("read device descriptor: got %d bytes, expected %d", n, DeviceDescriptorSize)
	}
	return buf[manufacturerIndexOffset], buf[productIndexOffset], nil
}
