package bootloader

import (
	"errors"
	"fmt"
)

// ErrDeviceNotFound is matched by every DeviceNotFoundError.
var ErrDeviceNotFound = errors.New("bootloader device not found")

// Stage labels used in StageError.
const (
	StageReadImage        = "read image"
	StageLocateDevice     = "locate device"
	StageQueryPageSize    = "query page size"
	StageSegmentImage     = "segment image"
	StageWritePages       = "write pages"
	StageStartApplication = "start application"
)

// DeviceNotFoundError indicates that no attached device carried the expected
// IDs and strings.
type DeviceNotFoundError struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string

	// Scanned is the number of devices enumerated
	Scanned int
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("no device %04x:%04x with manufacturer %q and product %q (scanned %d devices)",
		e.VendorID, e.ProductID, e.Manufacturer, e.Product, e.Scanned)
}

// Is reports ErrDeviceNotFound as a match.
func (e *DeviceNotFoundError) Is(target error) bool {
	return target == ErrDeviceNotFound
}

// StageError names the programming stage that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage recorded in err, or "" if err carries none.
func FailedStage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
