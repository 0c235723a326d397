//go:build linux

package gpioconfig

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

func openPin(chipPath string, line int) (Pin, error) {
	chip, err := gpiocdev.NewChip(chipPath)
	if err != nil {
		return nil, fmt.Errorf("gpioconfig: open %s: %w", chipPath, err)
	}

	l, err := chip.RequestLine(line, gpiocdev.AsInput, gpiocdev.WithConsumer("nmuxd-config"))
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("gpioconfig: request line %d on %s: %w", line, chipPath, err)
	}

	return &gpiodPin{chip: chip, line: l}, nil
}

type gpiodPin struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// Asserted reports the configuration pin's pulled-down state: value 0 on
// an active-low input means the pin is asserted.
func (p *gpiodPin) Asserted() bool {
	v, err := p.line.Value()
	if err != nil {
		return false
	}
	return v == 0
}

func (p *gpiodPin) Close() error {
	err1 := p.line.Close()
	err2 := p.chip.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func openOutputPin(chipPath string, line int) (OutputPin, error) {
	chip, err := gpiocdev.NewChip(chipPath)
	if err != nil {
		return nil, fmt.Errorf("gpioconfig: open %s: %w", chipPath, err)
	}

	l, err := chip.RequestLine(line, gpiocdev.AsOutput(1), gpiocdev.WithConsumer("nmux-configure"))
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("gpioconfig: request output line %d on %s: %w", line, chipPath, err)
	}

	return &gpiodOutputPin{chip: chip, line: l, offset: line}, nil
}

type gpiodOutputPin struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	offset int
}

// Assert pulls the line low, matching the active-low switch the device
// side polls (gpioconfig.Pin.Asserted reports true at value 0).
func (p *gpiodOutputPin) Assert() error { return p.line.SetValue(0) }

// Release drives the line high, then re-requests the same offset as an
// input so the multiplexer's own pull-up resistor decides the line's
// resting state once this process lets go of it, mirroring the source
// client's release-then-request-input sequence on exit.
func (p *gpiodOutputPin) Release() error {
	if err := p.line.SetValue(1); err != nil {
		return err
	}
	if err := p.line.Close(); err != nil {
		return err
	}
	l, err := p.chip.RequestLine(p.offset, gpiocdev.AsInput, gpiocdev.WithConsumer("nmux-configure"))
	if err != nil {
		return err
	}
	p.line = l
	return nil
}

func (p *gpiodOutputPin) Close() error {
	err1 := p.line.Close()
	err2 := p.chip.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
