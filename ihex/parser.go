package ihex

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse decodes an Intel HEX file from the given file path.
//
// Example:
//
//	img, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes\n", img.Len())
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader decodes Intel HEX text from any io.Reader.
// Blank lines are skipped and nothing after the End Of File record is read.
//
// Example:
//
//	img, err := ihex.ParseReader(strings.NewReader(":00000001FF\n"))
func ParseReader(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)
	b := NewBuilder()

	lineNum := 0
	for !b.Done() && scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		rec, err := ParseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if err := b.Add(rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return b.Image()
}
