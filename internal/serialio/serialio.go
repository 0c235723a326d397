// Package serialio opens the eight input ttys and the one output tty at
// raw 8-N-1 settings, per spec section 6's wire format. Optocoupled
// inversion (spec sections 4.1 and 6) is applied here at the byte
// boundary, XOR'ing a fixed mask, rather than at the termios layer, which
// has no notion of line-level inversion.
package serialio

import (
	"fmt"
	"io"
)

// Port is one opened serial line: either an input line feeding the bit
// parser, or the single output line the transmitter writes to.
type Port struct {
	f       io.ReadWriteCloser
	invert  bool
	scratch [1]byte
}

// Open opens path at baud with raw 8-N-1 settings. invert applies the
// optocoupled-inversion XOR mask (0xFF) to every byte read or written.
func Open(path string, baud int, invert bool) (*Port, error) {
	f, err := openTTY(path, baud)
	if err != nil {
		return nil, fmt.Errorf("serialio: open %s: %w", path, err)
	}
	return &Port{f: f, invert: invert}, nil
}

// ReadByte reads and returns one raw byte, inversion-corrected.
func (p *Port) ReadByte() (byte, error) {
	if _, err := io.ReadFull(p.f, p.scratch[:]); err != nil {
		return 0, err
	}
	b := p.scratch[0]
	if p.invert {
		b ^= 0xFF
	}
	return b, nil
}

// Ready always reports true for a blocking tty write path; the real
// back-pressure comes from the OS write buffer, which Write below blocks
// on exactly as a hardware UART's shift register would busy the CPU.
func (p *Port) Ready() bool { return true }

// Write implements nmea.ByteSink: it applies the output inversion mask
// and writes the byte to the underlying tty.
func (p *Port) Write(b byte) {
	if p.invert {
		b ^= 0xFF
	}
	p.scratch[0] = b
	_, _ = p.f.Write(p.scratch[:])
}

func (p *Port) Close() error {
	return p.f.Close()
}
