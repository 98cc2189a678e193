package protocol

import "fmt"

const (
	requestIn  = DirectionIn | TypeVendor | RecipientDevice
	requestOut = DirectionOut | TypeVendor | RecipientDevice
)

// BuildGetPageSizeRequest constructs a Get Page Size request.
//
// The receive buffer is ResponseBufferSize bytes so a reply longer than
// PageSizeResponseSize shows up as a byte count mismatch.
func BuildGetPageSizeRequest() Request {
	return Request{
		RequestType: requestIn,
		Request:     CmdGetPageSize,
		Data:        make([]byte, ResponseBufferSize),
	}
}

// BuildStartApplicationRequest constructs a Start Application request.
func BuildStartApplicationRequest() Request {
	return Request{
		RequestType: requestIn,
		Request:     CmdStartApplication,
		Data:        make([]byte, ResponseBufferSize),
	}
}

// BuildWritePageRequest constructs a Write Page request for the page at
// address. The address travels in wValue and must fit in 16 bits.
//
// Example:
//
//	req, err := protocol.BuildWritePageRequest(0x0100, page)
func BuildWritePageRequest(address uint32, data []byte) (Request, error) {
	if len(data) == 0 {
		return Request{}, fmt.Errorf("page data cannot be empty")
	}
	if len(data) > 0xFFFF {
		return Request{}, fmt.Errorf("page length %d exceeds maximum %d bytes", len(data), 0xFFFF)
	}
	if err := CheckPageAddress(address); err != nil {
		return Request{}, err
	}

	return Request{
		RequestType: requestOut,
		Request:     CmdWritePage,
		Value:       uint16(address),
		Data:        data,
	}, nil
}
