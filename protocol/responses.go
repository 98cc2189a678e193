package protocol

import "encoding/binary"

// ParsePageSizeResponse validates a Get Page Size reply of n bytes received
// into data and returns the page size.
//
// Data format (PageSizeResponseSize bytes):
//
//	[SIZE_H][SIZE_L]
func ParsePageSizeResponse(data []byte, n int) (int, error) {
	if n != PageSizeResponseSize || len(data) < PageSizeResponseSize {
		return 0, &ViolationError{
			Operation: "get page size",
			Expected:  PageSizeResponseSize,
			Actual:    n,
		}
	}

	return int(binary.BigEndian.Uint16(data[:PageSizeResponseSize])), nil
}

// CheckStartApplicationResponse validates a Start Application reply of n
// bytes. The device must not return any data.
func CheckStartApplicationResponse(n int) error {
	if n != StartApplicationResponseSize {
		return &ViolationError{
			Operation: "start application",
			Expected:  StartApplicationResponseSize,
			Actual:    n,
		}
	}
	return nil
}

// CheckWritePageResponse validates that all sent bytes of a Write Page
// request were accepted.
func CheckWritePageResponse(n, sent int) error {
	if n != sent {
		return &ViolationError{
			Operation: "write page",
			Expected:  sent,
			Actual:    n,
		}
	}
	return nil
}
