package ihex

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is matched by every record decoding error.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnsupportedRecordType is matched when a record type is outside 00-05.
	ErrUnsupportedRecordType = errors.New("unsupported record type")

	// ErrTruncatedImage indicates the input ended before an End Of File record.
	ErrTruncatedImage = errors.New("truncated image: missing end of file record")
)

// MalformedRecordError describes why a line could not be decoded as a record.
type MalformedRecordError struct {
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed record: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed record: %s", e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformedRecord as a match.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// UnsupportedRecordTypeError reports a record type the builder cannot place.
type UnsupportedRecordTypeError struct {
	Type RecordType
}

func (e *UnsupportedRecordTypeError) Error() string {
	return fmt.Sprintf("unsupported record type 0x%02X", byte(e.Type))
}

// Is reports ErrUnsupportedRecordType as a match.
func (e *UnsupportedRecordTypeError) Is(target error) bool {
	return target == ErrUnsupportedRecordType
}

func malformed(format string, args ...interface{}) error {
	return &MalformedRecordError{Reason: fmt.Sprintf(format, args...)}
}
