package bootloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-avrusbboot/flash"
	"github.com/moffa90/go-avrusbboot/protocol"
	"github.com/moffa90/go-avrusbboot/usb"
)

// Session speaks the bootloader protocol over one open device handle.
// The page size is queried once and cached.
//
// Session is not safe for concurrent use.
type Session struct {
	handle   usb.Handle
	config   Config
	pageSize int
	closed   bool
}

// NewSession takes ownership of h. Close releases it.
//
// Example:
//
//	h, _ := bootloader.Locate(ctx, bus)
//	s := bootloader.NewSession(h, bootloader.WithTimeout(2*time.Second))
//	defer s.Close()
func NewSession(h usb.Handle, opts ...Option) *Session {
	if h == nil {
		panic("handle cannot be nil")
	}
	return &Session{
		handle: h,
		config: newConfig(opts),
	}
}

func newSession(h usb.Handle, cfg Config) *Session {
	return &Session{handle: h, config: cfg}
}

// PageSize returns the flash page size reported by the device. Only the
// first call performs a transfer.
func (s *Session) PageSize(ctx context.Context) (int, error) {
	if s.pageSize > 0 {
		return s.pageSize, nil
	}

	req := protocol.BuildGetPageSizeRequest()
	n, err := s.transfer(ctx, "get page size", req)
	if err != nil {
		return 0, err
	}

	size, err := protocol.ParsePageSizeResponse(req.Data, n)
	if err != nil {
		return 0, err
	}
	if err := flash.ValidatePageSize(size); err != nil {
		return 0, fmt.Errorf("get page size: %w", err)
	}

	s.config.logDebug("page size", "bytes", size)
	s.pageSize = size
	return size, nil
}

// WritePage programs one page. The page must be exactly one page size long
// and its address must fit in 16 bits.
func (s *Session) WritePage(ctx context.Context, page *flash.Page) error {
	if page == nil {
		return errors.New("page cannot be nil")
	}

	size, err := s.PageSize(ctx)
	if err != nil {
		return err
	}
	if len(page.Data) != size {
		return &protocol.ViolationError{
			Operation: "write page",
			Expected:  size,
			Actual:    len(page.Data),
		}
	}

	req, err := protocol.BuildWritePageRequest(page.Address, page.Data)
	if err != nil {
		return fmt.Errorf("write page: %w", err)
	}

	n, err := s.transfer(ctx, fmt.Sprintf("write page 0x%04X", page.Address), req)
	if err != nil {
		return err
	}
	return protocol.CheckWritePageResponse(n, len(page.Data))
}

// StartApplication makes the device leave the bootloader and run the
// programmed application.
func (s *Session) StartApplication(ctx context.Context) error {
	req := protocol.BuildStartApplicationRequest()
	n, err := s.transfer(ctx, "start application", req)
	if err != nil {
		return err
	}
	return protocol.CheckStartApplicationResponse(n)
}

// Close releases the device handle. Further calls are no-ops.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.handle.Close()
}

// transfer issues req, bounded by the configured timeout and the context
// deadline.
func (s *Session) transfer(ctx context.Context, op string, req protocol.Request) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("%s: %w", op, usb.ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	timeout := s.config.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("%s: %w", op, context.DeadlineExceeded)
	}

	n, err := s.handle.Control(req.RequestType, req.Request, req.Value, req.Index, req.Data, timeout)
	if err != nil {
		if errors.Is(err, usb.ErrTimeout) {
			return n, fmt.Errorf("%s: %w: %w", op, protocol.ErrTransferTimeout, err)
		}
		return n, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
