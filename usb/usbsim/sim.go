// Package usbsim provides an in-memory USB bus populated with simulated
// AVRUSBBoot devices and arbitrary other devices.
//
// The simulated bootloader answers the three vendor requests and the
// standard descriptor reads, and records everything it receives. Tests use it
// in place of real hardware and the CLI uses it for --simulate runs.
package usbsim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-avrusbboot/protocol"
	"github.com/moffa90/go-avrusbboot/usb"
)

// String descriptor indices reported by every simulated device.
const (
	ManufacturerIndex = 1
	ProductIndex      = 2
)

// ErrUnsupportedRequest is returned for control requests the simulator does
// not implement.
var ErrUnsupportedRequest = errors.New("usbsim: unsupported request")

// Transfer is one control transfer seen by a simulated device.
type Transfer struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      int
	Timeout     time.Duration
}

// Write is one Write Page request accepted by a simulated bootloader.
type Write struct {
	Address uint16
	Data    []byte
}

// Device is a simulated USB device.
type Device struct {
	// Vendor and Product are the USB IDs
	Vendor  uint16
	Product uint16

	// Manufacturer and ProductName are returned as string descriptors
	Manufacturer string
	ProductName  string

	// PageSize is reported by Get Page Size
	PageSize uint16

	// OpenErr makes Open fail
	OpenErr error

	// StringErr makes string descriptor reads fail
	StringErr error

	// Respond, when set, handles every vendor request instead of the
	// built-in bootloader behaviour. It runs with the device locked.
	Respond func(t Transfer, data []byte) (int, error)

	mu        sync.Mutex
	transfers []Transfer
	writes    []Write
	started   bool
	opens     int
	closes    int
}

// NewBootloader returns a device that identifies as AVRUSBBoot and reports
// the given page size.
func NewBootloader(pageSize uint16) *Device {
	return &Device{
		Vendor:       protocol.VendorIDShared,
		Product:      protocol.ProductIDShared,
		Manufacturer: protocol.Manufacturer,
		ProductName:  protocol.Product,
		PageSize:     pageSize,
	}
}

// Transfers returns a copy of every vendor transfer received so far.
func (d *Device) Transfers() []Transfer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Transfer(nil), d.transfers...)
}

// Writes returns a copy of every accepted page write in arrival order.
func (d *Device) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Write(nil), d.writes...)
}

// Started reports whether Start Application was received.
func (d *Device) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Opens returns how many times the device was opened.
func (d *Device) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Closes returns how many handles to the device were closed.
func (d *Device) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// Memory returns the flash contents written so far, keyed by absolute
// address.
func (d *Device) Memory() map[uint32]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	mem := make(map[uint32]byte)
	for _, w := range d.writes {
		for i, b := range w.Data {
			mem[uint32(w.Address)+uint32(i)] = b
		}
	}
	return mem
}

func (d *Device) vendorRequest(t Transfer, data []byte) (int, error) {
	if d.Respond != nil {
		return d.Respond(t, data)
	}

	switch t.Request {
	case protocol.CmdGetPageSize:
		if len(data) < protocol.PageSizeResponseSize {
			return 0, fmt.Errorf("usbsim: page size buffer too small (%d bytes)", len(data))
		}
		binary.BigEndian.PutUint16(data, d.PageSize)
		return protocol.PageSizeResponseSize, nil

	case protocol.CmdWritePage:
		d.writes = append(d.writes, Write{
			Address: t.Value,
			Data:    append([]byte(nil), data...),
		})
		return len(data), nil

	case protocol.CmdStartApplication:
		d.started = true
		return 0, nil
	}

	return 0, fmt.Errorf("%w: vendor request %d", ErrUnsupportedRequest, t.Request)
}

func (d *Device) deviceDescriptor() []byte {
	desc := make([]byte, usb.DeviceDescriptorSize)
	desc[0] = usb.DeviceDescriptorSize
	desc[1] = usb.DescriptorTypeDevice
	binary.LittleEndian.PutUint16(desc[2:], 0x0110)
	desc[7] = 8
	binary.LittleEndian.PutUint16(desc[8:], d.Vendor)
	binary.LittleEndian.PutUint16(desc[10:], d.Product)
	desc[14] = ManufacturerIndex
	desc[15] = ProductIndex
	desc[17] = 1
	return desc
}

func (d *Device) stringDescriptor(index uint8) ([]byte, error) {
	if d.StringErr != nil {
		return nil, d.StringErr
	}

	switch index {
	case 0:
		// Supported language table.
		return []byte{4, usb.DescriptorTypeString, 0x09, 0x04}, nil
	case ManufacturerIndex:
		return usb.EncodeString(d.Manufacturer), nil
	case ProductIndex:
		return usb.EncodeString(d.ProductName), nil
	}
	return nil, fmt.Errorf("%w: string index %d", ErrUnsupportedRequest, index)
}

// Bus is a simulated usb.Bus. Devices are enumerated in the order given.
type Bus struct {
	devices []*Device
}

// NewBus returns a bus with the given devices attached.
func NewBus(devices ...*Device) *Bus {
	return &Bus{devices: devices}
}

// Attach adds a device to the bus.
func (b *Bus) Attach(d *Device) {
	b.devices = append(b.devices, d)
}

// Devices implements usb.Bus.
func (b *Bus) Devices() ([]usb.DeviceDesc, error) {
	descs := make([]usb.DeviceDesc, len(b.devices))
	for i, d := range b.devices {
		descs[i] = usb.DeviceDesc{
			Bus:     1,
			Address: i + 1,
			Vendor:  d.Vendor,
			Product: d.Product,
		}
	}
	return descs, nil
}

// Open implements usb.Bus.
func (b *Bus) Open(desc usb.DeviceDesc) (usb.Handle, error) {
	i := desc.Address - 1
	if desc.Bus != 1 || i < 0 || i >= len(b.devices) {
		return nil, fmt.Errorf("%w (%s): no such device", usb.ErrOpen, desc)
	}

	d := b.devices[i]
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.OpenErr != nil {
		return nil, fmt.Errorf("%w (%s): %v", usb.ErrOpen, desc, d.OpenErr)
	}
	d.opens++

	desc.ManufacturerIndex = ManufacturerIndex
	desc.ProductIndex = ProductIndex
	return &handle{dev: d, desc: desc}, nil
}

type handle struct {
	dev    *Device
	desc   usb.DeviceDesc
	closed bool
}

func (h *handle) Desc() usb.DeviceDesc {
	return h.desc
}

func (h *handle) StringDescriptor(index uint8, langID uint16) ([]byte, error) {
	return usb.ReadStringDescriptor(h, index, langID)
}

func (h *handle) Control(rType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if h.closed {
		return 0, usb.ErrClosed
	}

	if rType == usb.RequestDirectionIn && request == usb.RequestGetDescriptor {
		var desc []byte
		switch value >> 8 {
		case usb.DescriptorTypeDevice:
			desc = d.deviceDescriptor()
		case usb.DescriptorTypeString:
			s, err := d.stringDescriptor(uint8(value))
			if err != nil {
				return 0, err
			}
			desc = s
		default:
			return 0, fmt.Errorf("%w: descriptor type %d", ErrUnsupportedRequest, value>>8)
		}
		return copy(data, desc), nil
	}

	if rType&0x60 != protocol.TypeVendor {
		return 0, fmt.Errorf("%w: request type 0x%02X", ErrUnsupportedRequest, rType)
	}

	t := Transfer{
		RequestType: rType,
		Request:     request,
		Value:       value,
		Index:       index,
		Length:      len(data),
		Timeout:     timeout,
	}
	d.transfers = append(d.transfers, t)
	return d.vendorRequest(t, data)
}

func (h *handle) Close() error {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.dev.closes++
	return nil
}
