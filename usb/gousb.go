package usb

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

// GoUSBBus is a Bus backed by libusb through gousb.
type GoUSBBus struct {
	ctx *gousb.Context
}

// NewGoUSBBus initializes a libusb context. Call Close when done.
func NewGoUSBBus() *GoUSBBus {
	return &GoUSBBus{ctx: gousb.NewContext()}
}

// Devices lists every attached device without opening any of them.
func (b *GoUSBBus) Devices() ([]DeviceDesc, error) {
	var descs []DeviceDesc

	_, err := b.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		descs = append(descs, DeviceDesc{
			Bus:     desc.Bus,
			Address: desc.Address,
			Vendor:  uint16(desc.Vendor),
			Product: uint16(desc.Product),
		})
		return false
	})
	if err != nil {
		return descs, fmt.Errorf("usb: enumerate devices: %w", err)
	}

	return descs, nil
}

// Open opens the device at desc's bus and address and resolves its string
// descriptor indices.
func (b *GoUSBBus) Open(desc DeviceDesc) (Handle, error) {
	devs, err := b.ctx.OpenDevices(func(d *gousb.DeviceDesc) bool {
		return d.Bus == desc.Bus && d.Address == desc.Address
	})
	if err != nil {
		for _, d := range devs {
			_ = d.Close()
		}
		return nil, fmt.Errorf("%w (%s): %v", ErrOpen, desc, err)
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("%w (%s): device is gone", ErrOpen, desc)
	}
	for _, extra := range devs[1:] {
		_ = extra.Close()
	}

	h := &goUSBHandle{dev: devs[0], desc: desc}

	mfr, prod, err := readStringIndices(h)
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("%w (%s): %v", ErrOpen, desc, err)
	}
	h.desc.ManufacturerIndex = mfr
	h.desc.ProductIndex = prod

	return h, nil
}

// Close releases the libusb context.
func (b *GoUSBBus) Close() error {
	if b.ctx == nil {
		return nil
	}
	err := b.ctx.Close()
	b.ctx = nil
	return err
}

type goUSBHandle struct {
	mu   sync.Mutex
	dev  *gousb.Device
	desc DeviceDesc
}

func (h *goUSBHandle) Desc() DeviceDesc {
	return h.desc
}

func (h *goUSBHandle) StringDescriptor(index uint8, langID uint16) ([]byte, error) {
	return ReadStringDescriptor(h, index, langID)
}

func (h *goUSBHandle) Control(rType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dev == nil {
		return 0, ErrClosed
	}

	h.dev.ControlTimeout = timeout
	n, err := h.dev.Control(rType, request, value, index, data)
	if err != nil {
		if errors.Is(err, gousb.ErrorTimeout) {
			return n, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return n, fmt.Errorf("usb: control transfer: %w", err)
	}
	return n, nil
}

func (h *goUSBHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dev == nil {
		return nil
	}
	err := h.dev.Close()
	h.dev = nil
	return err
}
