package flash

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/moffa90/go-avrusbboot/ihex"
)

func imageFrom(t *testing.T, writes map[uint32][]byte) *ihex.Image {
	t.Helper()
	img := ihex.NewImage()
	for addr, data := range writes {
		for i, b := range data {
			img.Set(addr+uint32(i), b)
		}
	}
	return img
}

func sequence(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func TestValidatePageSize(t *testing.T) {
	tests := []struct {
		size    int
		wantErr bool
	}{
		{size: 1},
		{size: 2},
		{size: 64},
		{size: 128},
		{size: MaxPageSize},
		{size: 0, wantErr: true},
		{size: -64, wantErr: true},
		{size: 48, wantErr: true},
		{size: 100, wantErr: true},
		{size: MaxPageSize * 2, wantErr: true},
	}

	for _, tt := range tests {
		err := ValidatePageSize(tt.size)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPageSize) {
				t.Errorf("ValidatePageSize(%d) = %v, want ErrInvalidPageSize", tt.size, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidatePageSize(%d) = %v", tt.size, err)
		}
	}
}

func TestSegmentInvalidPageSize(t *testing.T) {
	img := imageFrom(t, map[uint32][]byte{0: {0x01}})

	_, err := Segment(img, 96)
	var sizeErr *InvalidPageSizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("error = %v, want *InvalidPageSizeError", err)
	}
	if sizeErr.Size != 96 {
		t.Errorf("Size = %d, want 96", sizeErr.Size)
	}
	if !strings.Contains(err.Error(), "power of two") {
		t.Errorf("error = %v", err)
	}
}

func TestSegmentEmptyImage(t *testing.T) {
	pages, err := Segment(ihex.NewImage(), 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("got %d pages, want 0", len(pages))
	}
}

func TestSegmentPadding(t *testing.T) {
	img := imageFrom(t, map[uint32][]byte{
		0x42: {0xAA, 0xBB},
	})

	pages, err := Segment(img, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}

	p := pages[0]
	if p.Address != 0x40 {
		t.Errorf("Address = 0x%X, want 0x40", p.Address)
	}
	want := bytes.Repeat([]byte{FillByte}, 16)
	want[2], want[3] = 0xAA, 0xBB
	if !bytes.Equal(p.Data, want) {
		t.Errorf("Data = % X, want % X", p.Data, want)
	}
	if p.End() != 0x50 {
		t.Errorf("End() = 0x%X, want 0x50", p.End())
	}
}

func TestSegmentOrderAndAlignment(t *testing.T) {
	b := ihex.NewBuilder()
	records := []*ihex.Record{
		ihex.NewRecord(ihex.TypeData, 0x0300, []byte{0x03}),
		ihex.NewRecord(ihex.TypeData, 0x0000, []byte{0x00}),
		ihex.NewRecord(ihex.TypeData, 0x01FE, []byte{0x01, 0x02, 0x03, 0x04}),
		ihex.NewRecord(ihex.TypeEndOfFile, 0, nil),
	}
	for _, rec := range records {
		if err := b.Add(rec); err != nil {
			t.Fatal(err)
		}
	}
	img, err := b.Image()
	if err != nil {
		t.Fatal(err)
	}

	const size = 128
	pages, err := Segment(img, size)
	if err != nil {
		t.Fatal(err)
	}

	wantAddrs := []uint32{0x0000, 0x0180, 0x0200, 0x0300}
	if len(pages) != len(wantAddrs) {
		t.Fatalf("got %d pages, want %d", len(pages), len(wantAddrs))
	}
	for i, p := range pages {
		if p.Address != wantAddrs[i] {
			t.Errorf("page %d Address = 0x%04X, want 0x%04X", i, p.Address, wantAddrs[i])
		}
		if p.Address%size != 0 {
			t.Errorf("page %d not aligned: 0x%04X", i, p.Address)
		}
		if len(p.Data) != size {
			t.Errorf("page %d has %d bytes, want %d", i, len(p.Data), size)
		}
	}

	// The record crossing 0x0200 is split across two pages.
	if got := pages[1].Data[size-2:]; !bytes.Equal(got, []byte{0x01, 0x02}) {
		t.Errorf("tail of page 0x0180 = % X", got)
	}
	if got := pages[2].Data[:2]; !bytes.Equal(got, []byte{0x03, 0x04}) {
		t.Errorf("head of page 0x0200 = % X", got)
	}
}

func TestSegmentRoundTrip(t *testing.T) {
	writes := map[uint32][]byte{
		0x0000:  sequence(40),
		0x00A0:  {0x10, 0x20, 0x30},
		0x1FFE:  {0xCA, 0xFE, 0xBA, 0xBE},
		0x20000: sequence(7),
	}
	img := imageFrom(t, writes)

	for _, size := range []int{1, 8, 16, 64, 256} {
		pages, err := Segment(img, size)
		if err != nil {
			t.Fatalf("Segment(%d): %v", size, err)
		}

		covered := 0
		for _, p := range pages {
			for i, got := range p.Data {
				addr := p.Address + uint32(i)
				if want, ok := img.Get(addr); ok {
					covered++
					if got != want {
						t.Errorf("size %d: byte at 0x%05X = 0x%02X, want 0x%02X", size, addr, got, want)
					}
				} else if got != FillByte {
					t.Errorf("size %d: unwritten byte at 0x%05X = 0x%02X, want fill", size, addr, got)
				}
			}
		}

		if covered != img.Len() {
			t.Errorf("size %d: pages cover %d written bytes, image has %d", size, covered, img.Len())
		}
	}
}

func TestSegmentIdempotent(t *testing.T) {
	img := imageFrom(t, map[uint32][]byte{
		0x0010: sequence(100),
		0x0400: {0x01},
	})

	first, err := Segment(img, 32)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Segment(img, 32)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("page count differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Address != second[i].Address {
			t.Errorf("page %d address differs: 0x%X vs 0x%X", i, first[i].Address, second[i].Address)
		}
		if !bytes.Equal(first[i].Data, second[i].Data) {
			t.Errorf("page %d contents differ", i)
		}
	}
}

func TestSegmentPageBoundary(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		pageSize  int
		wantPages int
	}{
		{name: "ends exactly on boundary", length: 64, pageSize: 16, wantPages: 4},
		{name: "one byte past boundary", length: 65, pageSize: 16, wantPages: 5},
		{name: "single full page", length: 128, pageSize: 128, wantPages: 1},
		{name: "partial page", length: 3, pageSize: 64, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := imageFrom(t, map[uint32][]byte{0: sequence(tt.length)})

			pages, err := Segment(img, tt.pageSize)
			if err != nil {
				t.Fatal(err)
			}

			want := (tt.length + tt.pageSize - 1) / tt.pageSize
			if want != tt.wantPages {
				t.Fatalf("test table inconsistent: ceil = %d", want)
			}
			if len(pages) != tt.wantPages {
				t.Errorf("got %d pages, want %d", len(pages), tt.wantPages)
			}
			if Span(pages) != tt.wantPages*tt.pageSize {
				t.Errorf("Span() = %d, want %d", Span(pages), tt.wantPages*tt.pageSize)
			}
		})
	}
}

func TestSegmentScenario(t *testing.T) {
	input := ":10010000214601360121470136007EFE09D2190041\n:00000001FF"
	img, err := ihex.ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	pages, err := Segment(img, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}

	want := []byte{0x21, 0x46, 0x01, 0x36, 0x01, 0x21, 0x47, 0x01,
		0x36, 0x00, 0x7E, 0xFE, 0x09, 0xD2, 0x19, 0x00}
	if pages[0].Address != 0x0100 {
		t.Errorf("Address = 0x%04X, want 0x0100", pages[0].Address)
	}
	if !bytes.Equal(pages[0].Data, want) {
		t.Errorf("Data = % X, want % X", pages[0].Data, want)
	}
}
