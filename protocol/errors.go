package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation is matched by every ViolationError.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrTransferTimeout is matched when a bootloader transfer timed out.
	ErrTransferTimeout = errors.New("transfer timeout")

	// ErrAddressOutOfRange is returned for a page address wValue cannot carry.
	ErrAddressOutOfRange = errors.New("page address out of range")
)

// ViolationError reports a transfer whose byte count differs from what the
// protocol requires.
type ViolationError struct {
	// Operation is the command that failed
	Operation string

	// Expected is the required byte count
	Expected int

	// Actual is the byte count observed
	Actual int
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: wrong byte count: expected %d, got %d", e.Operation, e.Expected, e.Actual)
}

// Is reports ErrProtocolViolation as a match.
func (e *ViolationError) Is(target error) bool {
	return target == ErrProtocolViolation
}

// IsProtocolViolation returns true if err is or wraps a ViolationError.
func IsProtocolViolation(err error) bool {
	var v *ViolationError
	return errors.As(err, &v)
}

// CheckPageAddress returns ErrAddressOutOfRange when address does not fit in
// the 16-bit wValue of a Write Page request.
func CheckPageAddress(address uint32) error {
	if address > MaxPageAddress {
		return fmt.Errorf("%w: 0x%X exceeds maximum 0x%04X", ErrAddressOutOfRange, address, MaxPageAddress)
	}
	return nil
}
