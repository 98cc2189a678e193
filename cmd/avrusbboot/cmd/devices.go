package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-avrusbboot/bootloader"
)

func newDevicesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List attached USB devices",
		Long: `List every attached USB device. Devices carrying the bootloader IDs are
opened to read their strings; a matching bootloader is marked.

Examples:
  avrusbboot devices
  avrusbboot devices --simulate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevices(cmd, opts)
		},
	}
}

func runDevices(cmd *cobra.Command, opts *rootOptions) error {
	progOpts, err := opts.programmerOptions(cmd)
	if err != nil {
		return err
	}

	bus, release, err := opts.openBus()
	if err != nil {
		return err
	}
	defer release()

	infos, err := bootloader.ListDevices(bus, progOpts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No USB devices found")
		return nil
	}

	found := 0
	for _, info := range infos {
		line := info.Desc.String()
		switch {
		case info.Err != nil:
			line += fmt.Sprintf("  (cannot read strings: %v)", info.Err)
		case info.Candidate:
			line += fmt.Sprintf("  %q / %q", info.Manufacturer, info.Product)
		}
		if info.Match {
			line += "  [bootloader]"
			found++
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintf(out, "%d device(s), %d bootloader(s)\n", len(infos), found)
	return nil
}
