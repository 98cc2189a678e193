package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-avrusbboot/flash"
	"github.com/moffa90/go-avrusbboot/ihex"
)

func newInspectCmd() *cobra.Command {
	var (
		pageSize int
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "inspect <file.hex>",
		Short: "Show how a firmware file maps onto flash pages",
		Long: `Decode an Intel HEX file and print the pages that would be written for the
given page size. No device is needed.

With --out the padded pages are written back as Intel HEX, which is exactly
what the bootloader would receive.

Examples:
  avrusbboot inspect --page-size 64 main.hex
  avrusbboot inspect --page-size 128 --out padded.hex main.hex`,
		Args: exactFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], pageSize, outPath)
		},
	}

	cmd.Flags().IntVarP(&pageSize, "page-size", "p", 64, "flash page size in bytes")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the padded pages as Intel HEX")

	return cmd
}

func runInspect(cmd *cobra.Command, path string, pageSize int, outPath string) error {
	img, err := ihex.Parse(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	pages, err := flash.Segment(img, pageSize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d bytes of data\n", path, img.Len())
	if lo, last, ok := img.Bounds(); ok {
		fmt.Fprintf(out, "Range: 0x%04X-0x%04X\n", lo, last)
	}
	if img.HasStart {
		fmt.Fprintf(out, "Start address: 0x%08X\n", img.StartAddress)
	}

	fmt.Fprintf(out, "%d page(s) of %d bytes:\n", len(pages), pageSize)
	for _, page := range pages {
		used := 0
		for i := range page.Data {
			if _, ok := img.Get(page.Address + uint32(i)); ok {
				used++
			}
		}
		fmt.Fprintf(out, "  0x%04X  %3d/%d bytes from file\n", page.Address, used, pageSize)
	}
	fmt.Fprintf(out, "Total: %d bytes to write\n", flash.Span(pages))

	if outPath == "" {
		return nil
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := flash.WriteHex(f, pages); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outPath, err)
	}

	fmt.Fprintf(out, "Wrote %s\n", outPath)
	return nil
}
