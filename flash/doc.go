// Package flash splits a sparse flash image into page-aligned, fixed-size
// write operations.
//
// A page is the device's programming granularity. Every page returned by
// Segment starts at a multiple of the page size and carries exactly that many
// bytes; bytes the image never wrote are set to FillByte, the erased state of
// AVR flash.
//
//	img, _ := ihex.Parse("firmware.hex")
//	pages, err := flash.Segment(img, 64)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range pages {
//	    fmt.Printf("page 0x%04X\n", p.Address)
//	}
//
// The page set can be written back out as Intel HEX with WriteHex, which is
// handy for checking exactly what will reach the device.
package flash
