package bootloader

import (
	"context"
	"errors"
	"fmt"

	"github.com/moffa90/go-avrusbboot/usb"
)

// DeviceInfo describes one enumerated device for diagnostics.
type DeviceInfo struct {
	Desc usb.DeviceDesc

	// Candidate is true when the vendor and product IDs match
	Candidate bool

	// Manufacturer and Product are read for candidates only
	Manufacturer string
	Product      string

	// Match is true when a candidate also reports the expected strings
	Match bool

	// Err is set when a candidate could not be opened or read
	Err error
}

// Locate searches bus for the bootloader and returns an open handle to the
// first device whose IDs and strings match. The caller owns the handle.
//
// Devices with other IDs are skipped without being opened. A candidate that
// cannot be opened or read, or reports other strings, is closed and the
// search continues.
//
// Example:
//
//	h, err := bootloader.Locate(ctx, usb.NewGoUSBBus())
//	if errors.Is(err, bootloader.ErrDeviceNotFound) {
//	    // bootloader not connected
//	}
func Locate(ctx context.Context, bus usb.Bus, opts ...Option) (usb.Handle, error) {
	cfg := newConfig(opts)
	return locate(ctx, bus, &cfg)
}

func locate(ctx context.Context, bus usb.Bus, cfg *Config) (usb.Handle, error) {
	if bus == nil {
		return nil, errors.New("bus cannot be nil")
	}

	descs, err := bus.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	cfg.logDebug("scanning bus", "devices", len(descs))

	for _, desc := range descs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		if desc.Vendor != cfg.VendorID || desc.Product != cfg.ProductID {
			if cfg.Diagnostics {
				cfg.logDebug("skipping device", "device", desc.String())
			}
			continue
		}

		h, err := bus.Open(desc)
		if err != nil {
			cfg.logWarn("cannot open device", "device", desc.String(), "error", err)
			continue
		}

		manufacturer, product, err := readIdentity(h, cfg.LangID)
		if err != nil {
			cfg.logWarn("cannot read device strings", "device", desc.String(), "error", err)
			_ = h.Close()
			continue
		}

		if manufacturer != cfg.Manufacturer || product != cfg.Product {
			cfg.logDebug("device strings do not match",
				"device", desc.String(),
				"manufacturer", manufacturer,
				"product", product,
			)
			_ = h.Close()
			continue
		}

		cfg.logInfo("found bootloader", "device", desc.String())
		return h, nil
	}

	return nil, &DeviceNotFoundError{
		VendorID:     cfg.VendorID,
		ProductID:    cfg.ProductID,
		Manufacturer: cfg.Manufacturer,
		Product:      cfg.Product,
		Scanned:      len(descs),
	}
}

// ListDevices enumerates bus and reports, for every device with the
// bootloader IDs, whether its strings match. Every opened device is closed
// again.
func ListDevices(bus usb.Bus, opts ...Option) ([]DeviceInfo, error) {
	if bus == nil {
		return nil, errors.New("bus cannot be nil")
	}
	cfg := newConfig(opts)

	descs, err := bus.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	infos := make([]DeviceInfo, 0, len(descs))
	for _, desc := range descs {
		info := DeviceInfo{
			Desc:      desc,
			Candidate: desc.Vendor == cfg.VendorID && desc.Product == cfg.ProductID,
		}

		if info.Candidate {
			h, err := bus.Open(desc)
			if err != nil {
				info.Err = err
			} else {
				info.Manufacturer, info.Product, info.Err = readIdentity(h, cfg.LangID)
				_ = h.Close()
				info.Match = info.Err == nil &&
					info.Manufacturer == cfg.Manufacturer && info.Product == cfg.Product
			}
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// readIdentity returns the decoded manufacturer and product strings of an
// open device. A zero index means the device has no such string.
func readIdentity(h usb.Handle, langID uint16) (manufacturer, product string, err error) {
	desc := h.Desc()

	manufacturer, err = readString(h, desc.ManufacturerIndex, langID)
	if err != nil {
		return "", "", fmt.Errorf("manufacturer: %w", err)
	}
	product, err = readString(h, desc.ProductIndex, langID)
	if err != nil {
		return "", "", fmt.Errorf("product: %w", err)
	}
	return manufacturer, product, nil
}

func readString(h usb.Handle, index uint8, langID uint16) (string, error) {
	if index == 0 {
		return "", nil
	}
	raw, err := h.StringDescriptor(index, langID)
	if err != nil {
		return "", err
	}
	return usb.DecodeString(raw)
}
