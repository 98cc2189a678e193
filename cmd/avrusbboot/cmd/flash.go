package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/moffa90/go-avrusbboot/bootloader"
)

func runFlash(cmd *cobra.Command, opts *rootOptions, path string) error {
	progOpts, err := opts.programmerOptions(cmd)
	if err != nil {
		return err
	}

	bus, release, err := opts.openBus()
	if err != nil {
		return err
	}
	defer release()

	out := cmd.OutOrStdout()
	progOpts = append(progOpts, bootloader.WithProgressCallback(newProgressPrinter(out)))

	prog := bootloader.New(bus, progOpts...)
	if err := prog.ProgramFile(cmd.Context(), path); err != nil {
		return err
	}

	if dev := opts.simDevice; dev != nil {
		fmt.Fprintf(out, "Simulated device: %d pages written, application started: %t\n",
			len(dev.Writes()), dev.Started())
	}
	return nil
}

// newProgressPrinter reports progress on out. Per-page updates overwrite
// a single line and are only printed when out is a terminal.
func newProgressPrinter(out io.Writer) bootloader.ProgressCallback {
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	inLine := false
	endLine := func() {
		if inLine {
			fmt.Fprintln(out)
			inLine = false
		}
	}

	return func(p bootloader.Progress) {
		switch p.Phase {
		case bootloader.PhaseProgramming:
			if p.CurrentPage == 0 {
				if p.TotalPages == 0 {
					fmt.Fprintln(out, "Image contains no data, nothing to write")
					return
				}
				fmt.Fprintf(out, "Writing %d page(s)\n", p.TotalPages)
				return
			}
			if interactive {
				fmt.Fprintf(out, "\rPage %d/%d at 0x%04X (%.0f%%)",
					p.CurrentPage, p.TotalPages, p.Address, p.Percentage)
				inLine = true
			}
		case bootloader.PhaseStarting:
			endLine()
			fmt.Fprintln(out, "Starting application")
		case bootloader.PhaseComplete:
			endLine()
			fmt.Fprintf(out, "Done: %d pages, %d bytes in %s\n",
				p.TotalPages, p.BytesWritten, p.ElapsedTime.Round(time.Millisecond))
		}
	}
}
