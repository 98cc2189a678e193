package protocol

// Request describes one control transfer.
type Request struct {
	// RequestType is bmRequestType (direction, type and recipient)
	RequestType uint8

	// Request is the bRequest command code
	Request uint8

	// Value is wValue
	Value uint16

	// Index is wIndex
	Index uint16

	// Data is the payload for OUT requests or the receive buffer for IN
	Data []byte
}

// In reports whether the request transfers data from the device.
func (r Request) In() bool {
	return r.RequestType&DirectionIn != 0
}
