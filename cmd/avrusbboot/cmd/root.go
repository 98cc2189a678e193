package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/moffa90/go-avrusbboot/bootloader"
	"github.com/moffa90/go-avrusbboot/config"
	"github.com/moffa90/go-avrusbboot/flash"
	"github.com/moffa90/go-avrusbboot/usb"
	"github.com/moffa90/go-avrusbboot/usb/usbsim"
)

// rootOptions holds the global flags.
type rootOptions struct {
	configPath  string
	timeout     time.Duration
	noStart     bool
	diagnostics bool
	simulate    bool
	simPageSize int

	// simDevice is the simulated bootloader of the last openBus call
	simDevice *usbsim.Device
}

// NewRootCmd builds the command tree. Running it without a subcommand
// flashes the given file.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "avrusbboot <file.hex>",
		Short: "Flash AVR microcontrollers through the AVRUSBBoot bootloader",
		Long: `Flash Intel HEX firmware onto an AVR microcontroller running the
AVRUSBBoot USB bootloader.

The device is located by its USB IDs (16c0:05dc) and its manufacturer and
product strings ("www.fischl.de", "AVRUSBBoot"). The file is decoded
completely before the device is touched.

Examples:
  avrusbboot main.hex                         # Flash and start the application
  avrusbboot --no-start main.hex              # Flash and stay in the bootloader
  avrusbboot --simulate --sim-page-size 128 main.hex
  avrusbboot devices                          # List attached USB devices
  avrusbboot inspect --page-size 64 main.hex  # Show the page plan`,
		Version:       "1.0.0",
		Args:          exactFile,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlash(cmd, opts, args[0])
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"YAML configuration file (default "+config.GetDefaultConfigPath()+" if present)")
	flags.DurationVar(&opts.timeout, "timeout", 0,
		"control transfer timeout (overrides the configuration)")
	flags.BoolVar(&opts.noStart, "no-start", false,
		"do not start the application after flashing")
	flags.BoolVar(&opts.diagnostics, "diagnostics", false,
		"log every USB device skipped during the search")
	flags.BoolVar(&opts.simulate, "simulate", false,
		"use a simulated bootloader instead of real hardware")
	flags.IntVar(&opts.simPageSize, "sim-page-size", 64,
		"page size reported by the simulated bootloader")

	addGlogFlags(flags)

	rootCmd.AddCommand(newDevicesCmd(opts))
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newInitConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if stage := bootloader.FailedStage(err); stage != "" {
			fmt.Fprintf(os.Stderr, "avrusbboot: %s failed: %v\n", stage, err)
		} else {
			fmt.Fprintf(os.Stderr, "avrusbboot: %v\n", err)
		}
	}

	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

// addGlogFlags exposes the flags glog registers on the standard flag set.
// Only the common ones are listed in the help output. Warnings reach the
// console unless --stderrthreshold says otherwise.
func addGlogFlags(flags *pflag.FlagSet) {
	_ = flag.CommandLine.Set("stderrthreshold", "WARNING")
	flags.AddGoFlagSet(flag.CommandLine)
	flag.CommandLine.VisitAll(func(f *flag.Flag) {
		switch f.Name {
		case "v", "logtostderr", "alsologtostderr", "log_dir", "stderrthreshold":
		default:
			_ = flags.MarkHidden(f.Name)
		}
	})
}

func exactFile(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one firmware file\nusage: %s", cmd.UseLine())
	}
	return nil
}

// loadConfig reads the configuration file and applies flag overrides.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	path := o.configPath
	if path == "" && config.ConfigExists(config.GetDefaultConfigPath()) {
		path = config.GetDefaultConfigPath()
	}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		glog.V(1).Infof("loaded configuration from %s", path)
		cfg = loaded
	}

	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if o.noStart {
		cfg.StartApplication = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// programmerOptions returns the bootloader options for the effective
// configuration.
func (o *rootOptions) programmerOptions(cmd *cobra.Command) ([]bootloader.Option, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	opts := cfg.Options()
	opts = append(opts,
		bootloader.WithLogger(glogLogger{}),
		bootloader.WithDiagnostics(o.diagnostics),
	)
	return opts, nil
}

// openBus returns the simulated or the libusb bus and a function releasing
// it.
func (o *rootOptions) openBus() (usb.Bus, func(), error) {
	if o.simulate {
		if err := flash.ValidatePageSize(o.simPageSize); err != nil {
			return nil, nil, fmt.Errorf("--sim-page-size: %w", err)
		}
		o.simDevice = usbsim.NewBootloader(uint16(o.simPageSize))
		return usbsim.NewBus(o.simDevice), func() {}, nil
	}
	return openGoUSBBus()
}

func openGoUSBBus() (bus usb.Bus, release func(), err error) {
	// gousb panics when libusb cannot be initialized.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("initialize libusb: %v", r)
		}
	}()

	b := usb.NewGoUSBBus()
	return b, func() {
		if err := b.Close(); err != nil {
			glog.Warningf("close libusb context: %v", err)
		}
	}, nil
}
