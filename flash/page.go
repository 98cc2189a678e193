package flash

import (
	"github.com/moffa90/go-avrusbboot/ihex"
)

// FillByte pads page bytes that no data record wrote. 0xFF matches erased,
// unprogrammed flash.
const FillByte byte = 0xFF

// MaxPageSize is the largest page size the bootloader protocol can describe
// (the page size travels as a 16-bit value).
const MaxPageSize = 1 << 15

// Page is one page-aligned flash write. Pages are not modified after Segment
// returns them.
type Page struct {
	// Address is the first byte address; always a multiple of the page size
	Address uint32

	// Data holds exactly page-size bytes
	Data []byte
}

// End returns one past the last address covered by the page.
func (p *Page) End() uint32 {
	return p.Address + uint32(len(p.Data))
}

// ValidatePageSize checks that size is a positive power of two no larger
// than MaxPageSize.
func ValidatePageSize(size int) error {
	if size <= 0 || size > MaxPageSize || size&(size-1) != 0 {
		return &InvalidPageSizeError{Size: size}
	}
	return nil
}

// Segment groups the bytes of img into pages of pageSize bytes.
//
// Only pages holding at least one written byte are returned, in ascending
// address order regardless of the order the image was built in. An image
// without data yields an empty slice and no error.
//
// Example:
//
//	pages, err := flash.Segment(img, 128)
func Segment(img *ihex.Image, pageSize int) ([]*Page, error) {
	if err := ValidatePageSize(pageSize); err != nil {
		return nil, err
	}

	size := uint32(pageSize)
	mask := ^(size - 1)

	pages := make([]*Page, 0)
	var current *Page

	for _, addr := range img.Addresses() {
		base := addr & mask
		if current == nil || current.Address != base {
			current = newPage(base, pageSize)
			pages = append(pages, current)
		}

		b, _ := img.Get(addr)
		current.Data[addr-base] = b
	}

	return pages, nil
}

func newPage(address uint32, size int) *Page {
	data := make([]byte, size)
	for i := range data {
		data[i] = FillByte
	}
	return &Page{Address: address, Data: data}
}

// Span returns the total number of bytes the pages will program.
func Span(pages []*Page) int {
	total := 0
	for _, p := range pages {
		total += len(p.Data)
	}
	return total
}
