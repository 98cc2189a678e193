// Package bootloader provides a high-level API for flashing AVR
// microcontrollers through the AVRUSBBoot USB bootloader.
//
// # Overview
//
// This package orchestrates the complete flashing sequence:
//   - Locating the bootloader among all attached USB devices
//   - Querying the flash page size
//   - Splitting the firmware image into pages
//   - Writing every page in ascending address order
//   - Starting the application
//
// # Basic Usage
//
// The simplest way to program a device:
//
//	bus := usb.NewGoUSBBus()
//	defer bus.Close()
//
//	prog := bootloader.New(bus)
//	if err := prog.ProgramFile(context.Background(), "main.hex"); err != nil {
//	    log.Fatal(err)
//	}
//
// ProgramFile decodes the whole file before touching the bus, so a broken
// file never leaves the device half-programmed. Program accepts an already
// decoded *ihex.Image.
//
// # Progress Tracking
//
// Track programming progress with a callback:
//
//	prog := bootloader.New(bus,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Page %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentPage, p.TotalPages)
//	    }),
//	)
//
// # Configuration Options
//
// Customize behavior with functional options:
//
//	prog := bootloader.New(bus,
//	    bootloader.WithLogger(myLogger),
//	    bootloader.WithTimeout(2*time.Second),
//	    bootloader.WithDeviceIDs(0x16C0, 0x05DC),
//	    bootloader.WithDeviceStrings("www.fischl.de", "AVRUSBBoot"),
//	    bootloader.WithDiagnostics(true),
//	    bootloader.WithStartApplication(false),
//	)
//
// # Lower-Level Access
//
// Locate and Session expose the individual steps:
//
//	h, err := bootloader.Locate(ctx, bus)
//	if err != nil {
//	    return err
//	}
//	s := bootloader.NewSession(h)
//	defer s.Close()
//
//	size, err := s.PageSize(ctx)
//
// # State
//
// A Programmer moves through Init, DeviceFound, PageSizeKnown, ImageParsed,
// Flashing, Started and Done. Any failure ends in Failed. State reports the
// current position.
//
// # Error Handling
//
// Program and ProgramFile return a *StageError naming the failed stage:
//
//	var se *bootloader.StageError
//	if errors.As(err, &se) {
//	    fmt.Println("failed at", se.Stage)
//	}
//
// The cause is reachable with errors.Is:
//   - ErrDeviceNotFound: no matching device on the bus
//   - protocol.ErrProtocolViolation: a transfer moved the wrong byte count
//   - protocol.ErrTransferTimeout: a transfer timed out
//   - flash.ErrInvalidPageSize: the device reported an unusable page size
//   - protocol.ErrAddressOutOfRange: the image reaches past 0xFFFF; nothing
//     is written
//   - ihex.ErrMalformedRecord and friends: the file could not be decoded
//
// No step is retried. The device stays in the bootloader after a failure and
// can be flashed again.
package bootloader
