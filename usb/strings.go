package usb

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// ReplacementChar stands in for string descriptor characters outside ISO
// Latin-1.
const ReplacementChar = '?'

// DecodeString converts a raw string descriptor to text.
//
// The conversion is lossy: every UTF-16 code unit above 0xFF becomes
// ReplacementChar. A bLength shorter than the received data truncates it.
func DecodeString(desc []byte) (string, error) {
	if len(desc) < 2 {
		return "", fmt.Errorf("string descriptor too short: %d bytes", len(desc))
	}
	if desc[1] != DescriptorTypeString {
		return "", fmt.Errorf("not a string descriptor: type 0x%02X", desc[1])
	}

	n := len(desc)
	if int(desc[0]) < n {
		n = int(desc[0])
	}

	var sb strings.Builder
	for i := 2; i+1 < n; i += 2 {
		if desc[i+1] != 0 {
			sb.WriteRune(ReplacementChar)
			continue
		}
		sb.WriteRune(rune(desc[i]))
	}
	return sb.String(), nil
}

// EncodeString builds a string descriptor holding s as UTF-16LE. Text that
// does not fit in MaxDescriptorSize is cut off.
func EncodeString(s string) []byte {
	units := utf16.Encode([]rune(s))
	if limit := (MaxDescriptorSize - 2) / 2; len(units) > limit {
		units = units[:limit]
	}

	desc := make([]byte, 2, 2+2*len(units))
	desc[0] = byte(2 + 2*len(units))
	desc[1] = DescriptorTypeString
	for _, u := range units {
		desc = append(desc, byte(u), byte(u>>8))
	}
	return desc
}
