package flash

import (
	"errors"
	"fmt"
)

// ErrInvalidPageSize is matched by InvalidPageSizeError.
var ErrInvalidPageSize = errors.New("invalid page size")

// InvalidPageSizeError reports a page size that is zero, negative or not a
// power of two.
type InvalidPageSizeError struct {
	Size int
}

func (e *InvalidPageSizeError) Error() string {
	return fmt.Sprintf("invalid page size %d: must be a positive power of two", e.Size)
}

// Is reports ErrInvalidPageSize as a match.
func (e *InvalidPageSizeError) Is(target error) bool {
	return target == ErrInvalidPageSize
}
