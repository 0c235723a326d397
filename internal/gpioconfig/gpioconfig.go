// Package gpioconfig watches the configuration GPIO pin described in spec
// section 1: pulling it low switches the multiplexer into the interactive
// configuration dialogue. It implements nmea.ConfigPin.
package gpioconfig

import "nmuxd/internal/nmea"

// Pin reads the asserted (pulled-low) state of the configuration line.
// Production instances are backed by libgpiod on Linux (gpio_linux.go).
// On other platforms, or when the line cannot be opened, Open returns a
// nil Pin and an error.
type Pin interface {
	nmea.ConfigPin
	Close() error
}

// Open requests chipPath/line as an input and returns a Pin that reports
// asserted when the line reads low, matching an active-low pull-down
// switch (spec section 1, section 6).
func Open(chipPath string, line int) (Pin, error) {
	return openPin(chipPath, line)
}

// OutputPin is the client side of the same wire: cmd/nmux-configure drives
// chipPath/line as an output to force the multiplexer into the
// configuration dialogue, then releases it back to an input on exit so the
// pull-up resistor returns control to the multiplexer (spec section 6's
// exit semantics).
type OutputPin interface {
	// Assert pulls the line low.
	Assert() error
	// Release drives the line high and hands the offset back as an input,
	// matching the source client's gpiod_line_release +
	// gpiod_line_request_input sequence on exit.
	Release() error
	Close() error
}

// OpenOutput requests chipPath/line as an output, initially high (not
// asserted).
func OpenOutput(chipPath string, line int) (OutputPin, error) {
	return openOutputPin(chipPath, line)
}
