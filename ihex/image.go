package ihex

import (
	"encoding/binary"
	"sort"
)

// Image is a sparse flash image: absolute address to byte value.
// Addresses never covered by a data record have no entry.
type Image struct {
	data map[uint32]byte

	// StartAddress is the entry point from a start address record, if any.
	// For segment records it holds CS in the high and IP in the low 16 bits.
	StartAddress uint32

	// StartType is the record type that set StartAddress
	StartType RecordType

	// HasStart reports whether a start address record was seen
	HasStart bool
}

// NewImage returns an empty image.
func NewImage() *Image {
	return &Image{data: make(map[uint32]byte)}
}

// Set stores b at addr. A later write to the same address replaces it.
func (img *Image) Set(addr uint32, b byte) {
	img.data[addr] = b
}

// Get returns the byte at addr and whether it was ever written.
func (img *Image) Get(addr uint32) (byte, bool) {
	b, ok := img.data[addr]
	return b, ok
}

// Len returns the number of written addresses.
func (img *Image) Len() int {
	return len(img.data)
}

// Addresses returns every written address in ascending order.
func (img *Image) Addresses() []uint32 {
	addrs := make([]uint32, 0, len(img.data))
	for addr := range img.data {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Bounds returns the lowest and the highest written address, both
// inclusive. ok is false for an empty image.
func (img *Image) Bounds() (lo, last uint32, ok bool) {
	first := true
	for addr := range img.data {
		if first || addr < lo {
			lo = addr
		}
		if first || addr > last {
			last = addr
		}
		first = false
	}
	return lo, last, !first
}

// Builder folds records into an Image, tracking the extended address base.
//
// Records after End Of File are ignored.
type Builder struct {
	img  *Image
	base uint32
	done bool
}

// NewBuilder returns a builder with an empty image and a zero address base.
func NewBuilder() *Builder {
	return &Builder{img: NewImage()}
}

// Add applies one record to the image.
func (b *Builder) Add(rec *Record) error {
	if b.done {
		return nil
	}

	switch rec.Type {
	case TypeData:
		start := uint64(b.base) + uint64(rec.Offset)
		if start+uint64(len(rec.Data)) > 1<<32 {
			return malformed("data at 0x%X+%d runs past the 32-bit address space", start, len(rec.Data))
		}
		addr := uint32(start)
		for i, v := range rec.Data {
			b.img.Set(addr+uint32(i), v)
		}
	case TypeEndOfFile:
		b.done = true
	case TypeExtendedSegmentAddress:
		b.base = uint32(binary.BigEndian.Uint16(rec.Data)) * 16
	case TypeExtendedLinearAddress:
		b.base = uint32(binary.BigEndian.Uint16(rec.Data)) << 16
	case TypeStartSegmentAddress, TypeStartLinearAddress:
		b.img.StartAddress = binary.BigEndian.Uint32(rec.Data)
		b.img.StartType = rec.Type
		b.img.HasStart = true
	default:
		return &UnsupportedRecordTypeError{Type: rec.Type}
	}

	return nil
}

// Done reports whether the End Of File record has been applied.
func (b *Builder) Done() bool {
	return b.done
}

// Image returns the folded image, or ErrTruncatedImage when no End Of File
// record was seen.
func (b *Builder) Image() (*Image, error) {
	if !b.done {
		return nil, ErrTruncatedImage
	}
	return b.img, nil
}
