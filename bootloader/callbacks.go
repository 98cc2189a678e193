package bootloader

import "time"

// Programming phases reported through Progress.Phase.
const (
	PhaseLocating    = "locating"
	PhaseProgramming = "programming"
	PhaseStarting    = "starting"
	PhaseComplete    = "complete"
)

// Progress contains information about the programming progress.
// Passed to ProgressCallback during programming operations.
type Progress struct {
	// Phase describes the current operation phase:
	//   "locating"    - Searching the bus and querying the page size
	//   "programming" - Writing flash pages
	//   "starting"    - Starting the application
	//   "complete"    - Operation completed successfully
	Phase string

	// CurrentPage is the number of pages written so far
	CurrentPage int

	// TotalPages is the total number of pages to write
	TotalPages int

	// Address is the address of the page just written
	Address uint32

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the total number of bytes written so far
	BytesWritten int

	// ElapsedTime is the time elapsed since programming started
	ElapsedTime time.Duration
}

// ProgressCallback is called during programming to report progress.
// Implementations should return quickly to avoid stalling the transfers.
//
// Example:
//
//	prog := bootloader.New(bus,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Page %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentPage, p.TotalPages)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the programmer.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Warn(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	prog := bootloader.New(bus, bootloader.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning with optional key-value pairs
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
