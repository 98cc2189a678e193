package protocol

import "time"

// Device identity.
const (
	// VendorIDShared is the shared V-USB vendor ID (voti.nl)
	VendorIDShared = 0x16C0

	// ProductIDShared is the shared product ID for vendor class devices
	ProductIDShared = 0x05DC

	// Manufacturer is the expected manufacturer string descriptor
	Manufacturer = "www.fischl.de"

	// Product is the expected product string descriptor
	Product = "AVRUSBBoot"

	// LangIDEnglishUS is the language ID used for string descriptors
	LangIDEnglishUS = 0x0409
)

// bmRequestType bits.
const (
	// DirectionIn marks a device-to-host transfer
	DirectionIn = 0x80

	// DirectionOut marks a host-to-device transfer
	DirectionOut = 0x00

	// TypeVendor selects vendor-specific requests
	TypeVendor = 0x40

	// RecipientDevice addresses the device itself
	RecipientDevice = 0x00
)

// Command codes (bRequest).
const (
	// CmdStartApplication leaves the bootloader and jumps to the application
	CmdStartApplication = 1

	// CmdWritePage programs one flash page; wValue carries the page address
	CmdWritePage = 2

	// CmdGetPageSize reports the flash page size
	CmdGetPageSize = 3
)

// Response sizes.
const (
	// PageSizeResponseSize is the exact reply length of Get Page Size
	PageSizeResponseSize = 2

	// StartApplicationResponseSize is the exact reply length of Start Application
	StartApplicationResponseSize = 0

	// ResponseBufferSize is the buffer offered for IN requests. It is larger
	// than any valid reply so oversized replies are detected.
	ResponseBufferSize = 8
)

// MaxPageAddress is the highest page address wValue can carry.
const MaxPageAddress = 0xFFFF

// DefaultTimeout bounds every bootloader control transfer.
const DefaultTimeout = 5 * time.Second
