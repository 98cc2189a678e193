// Package ihex decodes Intel HEX firmware files into a sparse flash image.
//
// # Intel HEX Format
//
// An Intel HEX file is a sequence of ASCII records, one per line. Every record
// starts with a colon followed by hex-encoded bytes:
//
//	:[Length(2)][Offset(4)][Type(2)][Data(2*Length)][Checksum(2)]
//
// Example record:
//
//	:10010000214601360121470136007EFE09D2190041
//	  10 = Length (16 data bytes)
//	  0100 = Load offset (big-endian)
//	  00 = Record type (data)
//	  214601...1900 = Data
//	  41 = Checksum (two's complement of the sum of all other bytes)
//
// Supported record types:
//
//	00 Data
//	01 End Of File
//	02 Extended Segment Address (base = value * 16)
//	03 Start Segment Address (informational)
//	04 Extended Linear Address (base = value << 16)
//	05 Start Linear Address (informational)
//
// # Usage
//
// Decode a file from disk:
//
//	img, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lo, last, _ := img.Bounds()
//	fmt.Printf("%d bytes in 0x%04X-0x%04X\n", img.Len(), lo, last)
//
// Decode from an io.Reader:
//
//	img, err := ihex.ParseReader(strings.NewReader(hexContent))
//
// Records can also be folded one at a time with a Builder:
//
//	b := ihex.NewBuilder()
//	rec, _ := ihex.ParseRecord(":00000001FF")
//	_ = b.Add(rec)
//	img, err := b.Image()
//
// # Error Handling
//
// All errors can be classified with errors.Is:
//   - ErrMalformedRecord: bad start code, bad hex, length or checksum mismatch
//   - ErrUnsupportedRecordType: record type outside 00-05
//   - ErrTruncatedImage: input ended before the End Of File record
//
// Errors returned by ParseReader are prefixed with the offending line number.
package ihex
