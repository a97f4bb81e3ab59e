// Package serial provides sinks for the link cable port. The bus owns
// the SB/SC registers and transfer timing; a Device only receives the
// bytes the machine clocks out, which is enough for the test ROMs and
// homebrew that print through the link port.
package serial

// Device receives each byte the machine clocks out of the serial port.
type Device interface {
	Receive(value byte)
}
