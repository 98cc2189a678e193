package bootloader

import (
	"time"

	"github.com/moffa90/go-avrusbboot/protocol"
)

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during programming to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Timeout bounds every bootloader control transfer
	Timeout time.Duration

	// VendorID and ProductID select candidate devices
	VendorID  uint16
	ProductID uint16

	// Manufacturer and Product must equal the device's string descriptors
	Manufacturer string
	Product      string

	// LangID is the language used to read string descriptors
	LangID uint16

	// Diagnostics logs every device skipped during the search
	Diagnostics bool

	// StartApplication sends Start Application after the last page
	StartApplication bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Timeout:          protocol.DefaultTimeout,
		VendorID:         protocol.VendorIDShared,
		ProductID:        protocol.ProductIDShared,
		Manufacturer:     protocol.Manufacturer,
		Product:          protocol.Product,
		LangID:           protocol.LangIDEnglishUS,
		StartApplication: true,
	}
}

func newConfig(opts []Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track programming progress.
//
// Example:
//
//	prog := bootloader.New(bus,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
//
// Example:
//
//	prog := bootloader.New(bus, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTimeout sets the control transfer timeout. Non-positive values are
// ignored.
//
// Example:
//
//	prog := bootloader.New(bus, bootloader.WithTimeout(10*time.Second))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithDeviceIDs selects candidate devices by vendor and product ID.
// Default is the shared V-USB pair 16c0:05dc.
func WithDeviceIDs(vendorID, productID uint16) Option {
	return func(c *Config) {
		c.VendorID = vendorID
		c.ProductID = productID
	}
}

// WithDeviceStrings sets the manufacturer and product strings a candidate
// must report. Default is "www.fischl.de" / "AVRUSBBoot".
func WithDeviceStrings(manufacturer, product string) Option {
	return func(c *Config) {
		c.Manufacturer = manufacturer
		c.Product = product
	}
}

// WithLangID sets the language ID used to read string descriptors.
func WithLangID(langID uint16) Option {
	return func(c *Config) {
		c.LangID = langID
	}
}

// WithDiagnostics enables logging of every device skipped during the
// search.
func WithDiagnostics(enabled bool) Option {
	return func(c *Config) {
		c.Diagnostics = enabled
	}
}

// WithStartApplication enables or disables the Start Application request
// after programming. Default is true.
//
// Example:
//
//	prog := bootloader.New(bus, bootloader.WithStartApplication(false))
func WithStartApplication(start bool) Option {
	return func(c *Config) {
		c.StartApplication = start
	}
}

func (c *Config) reportProgress(progress Progress) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(progress)
	}
}

func (c *Config) logDebug(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debug(msg, keysAndValues...)
	}
}

func (c *Config) logInfo(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Info(msg, keysAndValues...)
	}
}

func (c *Config) logWarn(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Warn(msg, keysAndValues...)
	}
}

func (c *Config) logError(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Error(msg, keysAndValues...)
	}
}
