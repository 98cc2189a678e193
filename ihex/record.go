package ihex

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Constants for Intel HEX record parsing.
const (
	// StartCode is the mandatory first character of every record
	StartCode = ':'

	// MinRecordBytes is the size of a record without payload:
	// Length(1) + Offset(2) + Type(1) + Checksum(1)
	MinRecordBytes = 5

	// headerBytes is the number of bytes preceding the payload
	headerBytes = 4

	// addressRecordLength is the payload size of extended address records
	addressRecordLength = 2

	// startRecordLength is the payload size of start address records
	startRecordLength = 4
)

// RecordType identifies the kind of an Intel HEX record.
type RecordType byte

// Record types defined by the Intel HEX format.
const (
	TypeData                   RecordType = 0x00
	TypeEndOfFile              RecordType = 0x01
	TypeExtendedSegmentAddress RecordType = 0x02
	TypeStartSegmentAddress    RecordType = 0x03
	TypeExtendedLinearAddress  RecordType = 0x04
	TypeStartLinearAddress     RecordType = 0x05
)

func (t RecordType) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeEndOfFile:
		return "end of file"
	case TypeExtendedSegmentAddress:
		return "extended segment address"
	case TypeStartSegmentAddress:
		return "start segment address"
	case TypeExtendedLinearAddress:
		return "extended linear address"
	case TypeStartLinearAddress:
		return "start linear address"
	default:
		return fmt.Sprintf("type 0x%02X", byte(t))
	}
}

// Record is a single decoded Intel HEX line.
type Record struct {
	// Length is the payload byte count
	Length byte

	// Offset is the 16-bit load offset (big-endian in the file)
	Offset uint16

	// Type is the record type
	Type RecordType

	// Data is the record payload
	Data []byte

	// Checksum is the checksum byte as found in the file
	Checksum byte
}

// NewRecord creates a record with a computed length and checksum.
// The payload must not exceed 255 bytes.
func NewRecord(typ RecordType, offset uint16, data []byte) *Record {
	rec := &Record{
		Length: byte(len(data)),
		Offset: offset,
		Type:   typ,
		Data:   append([]byte(nil), data...),
	}
	raw := rec.Bytes()
	rec.Checksum = Checksum(raw[:len(raw)-1])
	return rec
}

// ParseRecord decodes one line of Intel HEX text.
//
// Surrounding whitespace (including a trailing carriage return) is ignored.
// The record checksum is verified and the payload size of address and EOF
// records is checked against its type. Record types outside 00-05 are
// returned as-is; rejecting them is left to the Builder.
//
// Example:
//
//	rec, err := ihex.ParseRecord(":0400000001020304F2")
func ParseRecord(line string) (*Record, error) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] != StartCode {
		return nil, malformed("missing start code %q", StartCode)
	}

	digits := line[1:]
	if len(digits)%2 != 0 {
		return nil, malformed("odd number of hex digits: %d", len(digits))
	}

	raw, err := hex.DecodeString(digits)
	if err != nil {
		return nil, &MalformedRecordError{Reason: "invalid hex data", Err: err}
	}

	if len(raw) < MinRecordBytes {
		return nil, malformed("record too short: got %d bytes, minimum is %d", len(raw), MinRecordBytes)
	}

	length := int(raw[0])
	if len(raw) != MinRecordBytes+length {
		return nil, malformed("length mismatch: byte count says %d, record carries %d",
			length, len(raw)-MinRecordBytes)
	}

	checksum := raw[len(raw)-1]
	if expected := Checksum(raw[:len(raw)-1]); checksum != expected {
		return nil, malformed("checksum mismatch: got 0x%02X, expected 0x%02X", checksum, expected)
	}

	rec := &Record{
		Length:   raw[0],
		Offset:   binary.BigEndian.Uint16(raw[1:3]),
		Type:     RecordType(raw[3]),
		Data:     make([]byte, length),
		Checksum: checksum,
	}
	copy(rec.Data, raw[headerBytes:headerBytes+length])

	if err := rec.checkShape(); err != nil {
		return nil, err
	}

	return rec, nil
}

// checkShape validates the payload size required by known record types.
func (r *Record) checkShape() error {
	var want int
	switch r.Type {
	case TypeEndOfFile:
		want = 0
	case TypeExtendedSegmentAddress, TypeExtendedLinearAddress:
		want = addressRecordLength
	case TypeStartSegmentAddress, TypeStartLinearAddress:
		want = startRecordLength
	default:
		return nil
	}

	if len(r.Data) != want {
		return malformed("%s record must carry %d bytes, got %d", r.Type, want, len(r.Data))
	}
	return nil
}

// Bytes returns the binary form of the record including its checksum.
func (r *Record) Bytes() []byte {
	raw := make([]byte, 0, MinRecordBytes+len(r.Data))
	raw = append(raw, r.Length, byte(r.Offset>>8), byte(r.Offset), byte(r.Type))
	raw = append(raw, r.Data...)
	return append(raw, r.Checksum)
}

// String returns the record as an Intel HEX line without line terminator.
func (r *Record) String() string {
	return string(StartCode) + strings.ToUpper(hex.EncodeToString(r.Bytes()))
}

// Checksum computes the Intel HEX checksum of data: the two's complement of
// the 8-bit sum of all bytes.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}
