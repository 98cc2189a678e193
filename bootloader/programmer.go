package bootloader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/moffa90/go-avrusbboot/flash"
	"github.com/moffa90/go-avrusbboot/ihex"
	"github.com/moffa90/go-avrusbboot/protocol"
	"github.com/moffa90/go-avrusbboot/usb"
)

// State is the position of a Programmer in the flashing sequence.
type State int32

const (
	StateInit State = iota
	StateDeviceFound
	StatePageSizeKnown
	StateImageParsed
	StateFlashing
	StateStarted
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateDeviceFound:
		return "DeviceFound"
	case StatePageSizeKnown:
		return "PageSizeKnown"
	case StateImageParsed:
		return "ImageParsed"
	case StateFlashing:
		return "Flashing"
	case StateStarted:
		return "Started"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Programmer flashes Intel HEX images onto an AVRUSBBoot device.
// It handles the complete sequence from device search to application start.
//
// A Programmer runs one operation at a time; State may be read concurrently.
type Programmer struct {
	bus    usb.Bus
	config Config
	state  atomic.Int32
}

// New creates a new Programmer that searches bus for the bootloader.
//
// Example:
//
//	bus := usb.NewGoUSBBus()
//	defer bus.Close()
//	prog := bootloader.New(bus,
//	    bootloader.WithProgressCallback(progressFunc),
//	    bootloader.WithTimeout(10*time.Second),
//	)
func New(bus usb.Bus, opts ...Option) *Programmer {
	if bus == nil {
		panic("bus cannot be nil")
	}

	return &Programmer{
		bus:    bus,
		config: newConfig(opts),
	}
}

// State returns the current state.
func (p *Programmer) State() State {
	return State(p.state.Load())
}

func (p *Programmer) setState(s State) {
	p.state.Store(int32(s))
}

// ProgramFile decodes the Intel HEX file at path and programs it. The file is
// decoded completely before the bus is touched.
//
// Example:
//
//	err := prog.ProgramFile(context.Background(), "main.hex")
//	if err != nil {
//	    log.Fatalf("flash failed at %s: %v", bootloader.FailedStage(err), err)
//	}
func (p *Programmer) ProgramFile(ctx context.Context, path string) error {
	p.setState(StateInit)

	img, err := ihex.Parse(path)
	if err != nil {
		return p.fail(StageReadImage, err)
	}

	p.config.logDebug("image decoded", "path", path, "bytes", img.Len())
	return p.Program(ctx, img)
}

// Program performs the complete flashing sequence:
//  1. Locate the bootloader on the bus
//  2. Query the flash page size
//  3. Segment the image into pages
//  4. Write every page in ascending address order
//  5. Start the application (unless disabled)
//
// The device handle is closed before Program returns. Failures are returned
// as *StageError. The operation can be cancelled via context between
// transfers.
func (p *Programmer) Program(ctx context.Context, img *ihex.Image) error {
	p.setState(StateInit)
	if img == nil {
		return p.fail(StageReadImage, errors.New("image cannot be nil"))
	}

	startTime := time.Now()

	p.config.reportProgress(Progress{Phase: PhaseLocating})

	handle, err := locate(ctx, p.bus, &p.config)
	if err != nil {
		return p.fail(StageLocateDevice, err)
	}
	p.setState(StateDeviceFound)

	session := newSession(handle, p.config)
	err = p.run(ctx, session, img, startTime)
	if closeErr := session.Close(); closeErr != nil {
		p.config.logWarn("close device", "error", closeErr)
	}
	if err != nil {
		return err
	}

	p.setState(StateDone)
	return nil
}

func (p *Programmer) run(ctx context.Context, s *Session, img *ihex.Image, startTime time.Time) error {
	pageSize, err := s.PageSize(ctx)
	if err != nil {
		return p.fail(StageQueryPageSize, err)
	}
	p.setState(StatePageSizeKnown)

	pages, err := flash.Segment(img, pageSize)
	if err != nil {
		return p.fail(StageSegmentImage, err)
	}
	// Pages are ascending, so the last one carries the highest address.
	if n := len(pages); n > 0 {
		if err := protocol.CheckPageAddress(pages[n-1].Address); err != nil {
			return p.fail(StageSegmentImage, err)
		}
	}
	p.setState(StateImageParsed)

	p.config.logDebug("image segmented",
		"pages", len(pages),
		"page_size", pageSize,
		"span", flash.Span(pages),
	)

	if len(pages) == 0 {
		p.config.logWarn("image contains no data, nothing to write")
	}

	p.setState(StateFlashing)
	p.config.reportProgress(Progress{
		Phase:      PhaseProgramming,
		TotalPages: len(pages),
		Percentage: 5,
	})

	bytesWritten := 0
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return p.fail(StageWritePages, fmt.Errorf("cancelled: %w", err))
		}

		if err := s.WritePage(ctx, page); err != nil {
			return p.fail(StageWritePages, fmt.Errorf("page %d of %d: %w", i+1, len(pages), err))
		}

		bytesWritten += len(page.Data)

		// Report progress (5% to 95%)
		p.config.reportProgress(Progress{
			Phase:        PhaseProgramming,
			CurrentPage:  i + 1,
			TotalPages:   len(pages),
			Address:      page.Address,
			Percentage:   5 + (float64(i+1)/float64(len(pages)))*90,
			BytesWritten: bytesWritten,
			ElapsedTime:  time.Since(startTime),
		})
	}

	if p.config.StartApplication {
		p.config.reportProgress(Progress{
			Phase:        PhaseStarting,
			CurrentPage:  len(pages),
			TotalPages:   len(pages),
			Percentage:   95,
			BytesWritten: bytesWritten,
			ElapsedTime:  time.Since(startTime),
		})

		if err := s.StartApplication(ctx); err != nil {
			return p.fail(StageStartApplication, err)
		}
		p.setState(StateStarted)
	}

	p.config.reportProgress(Progress{
		Phase:        PhaseComplete,
		CurrentPage:  len(pages),
		TotalPages:   len(pages),
		Percentage:   100,
		BytesWritten: bytesWritten,
		ElapsedTime:  time.Since(startTime),
	})

	p.config.logInfo("programming complete",
		"pages", len(pages),
		"bytes", bytesWritten,
		"elapsed", time.Since(startTime).String(),
	)

	return nil
}

// fail moves to StateFailed and wraps err with the stage label.
func (p *Programmer) fail(stage string, err error) error {
	p.setState(StateFailed)
	p.config.logError("programming failed", "stage", stage, "error", err)
	return &StageError{Stage: stage, Err: err}
}
