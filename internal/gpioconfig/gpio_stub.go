//go:build !linux

package gpioconfig

import "fmt"

func openPin(chipPath string, line int) (Pin, error) {
	return nil, fmt.Errorf("gpioconfig: gpio unsupported on this platform")
}

// stubPin never reports asserted; useful for tests and non-Linux hosts
// that construct one directly instead of going through Open.
type stubPin struct{}

func (stubPin) Asserted() bool { return false }
func (stubPin) Close() error   { return nil }

func openOutputPin(chipPath string, line int) (OutputPin, error) {
	return nil, fmt.Errorf("gpioconfig: gpio unsupported on this platform")
}
