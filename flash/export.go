package flash

import (
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
)

// HexLineLength is the number of data bytes per record written by WriteHex.
const HexLineLength = 16

// WriteHex writes the padded pages as an Intel HEX file.
func WriteHex(w io.Writer, pages []*Page) error {
	mem := gohex.NewMemory()
	for _, p := range pages {
		if err := mem.AddBinary(p.Address, p.Data); err != nil {
			return fmt.Errorf("add page 0x%04X: %w", p.Address, err)
		}
	}

	ew := &errWriter{w: w}
	mem.DumpIntelHex(ew, HexLineLength)
	if ew.err != nil {
		return fmt.Errorf("write hex: %w", ew.err)
	}
	return nil
}

// errWriter keeps the first write error, which gohex discards. Writes after
// a failure are dropped.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}
