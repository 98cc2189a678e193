// Command avrusbboot flashes Intel HEX firmware onto AVR microcontrollers
// running the AVRUSBBoot USB bootloader.
package main

import "github.com/moffa90/go-avrusbboot/cmd/avrusbboot/cmd"

func main() {
	cmd.Execute()
}
