// Package protocol implements the AVRUSBBoot bootloader wire protocol.
//
// The bootloader speaks vendor-specific control requests addressed to the
// device recipient on endpoint 0. There are three commands:
//
//	Request              Dir  bRequest  wValue         Reply
//	Get Page Size        IN   3         0              2 bytes, big-endian
//	Start Application    IN   1         0              0 bytes
//	Write Page           OUT  2         page address   page-size bytes accepted
//
// # Request Builders
//
// Use the Build* functions to describe a transfer:
//
//	req := protocol.BuildGetPageSizeRequest()
//	n, err := handle.Control(req.RequestType, req.Request, req.Value, req.Index, req.Data, timeout)
//
// # Response Checks
//
// Every reply is validated by its transferred byte count only; the device
// has no status codes. Use the Parse*/Check* functions:
//
//	size, err := protocol.ParsePageSizeResponse(req.Data, n)
//	err := protocol.CheckWritePageResponse(n, len(page))
//
// # Error Handling
//
// A byte count that differs from the expectation is a ViolationError, which
// matches ErrProtocolViolation:
//
//	if errors.Is(err, protocol.ErrProtocolViolation) {
//	    // abort the run; the device stays in the bootloader
//	}
//
// # Device Identity
//
// AVRUSBBoot uses the shared V-USB vendor/product IDs (VendorIDShared,
// ProductIDShared). Devices sharing that pair are told apart by their
// manufacturer and product strings (Manufacturer, Product).
package protocol
