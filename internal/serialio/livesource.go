package serialio

import (
	"sync"

	"nmuxd/internal/nmea"
)

// gapBitTimes is the idle-high padding synthesised between re-derived
// bytes; it only needs to be long enough that the parser's DONE_OF_BIT /
// CHECK_EARLY_RESTART transitions settle before the next byte, and is not
// otherwise observable since the source bytes already passed through the
// OS tty driver's own framing.
const gapBitTimes = 2

// LiveSource turns a live Port's already-framed bytes back into the
// synthetic 4x-oversampled waveform internal/nmea's bit parser expects,
// so a real tty and a test-generated waveform exercise the identical
// parser code path (spec section 9's hosted-port note). A background
// goroutine drains the port; Sample is non-blocking and returns idle-high
// whenever nothing new has arrived yet, exactly like a quiet line.
type LiveSource struct {
	mu    sync.Mutex
	wave  *nmea.Waveform
	err   error
	ticks int
}

// NewLiveSource starts pumping port's bytes into a waveform in the
// background and returns a SampleSource for it.
func NewLiveSource(port *Port) *LiveSource {
	ls := &LiveSource{wave: nmea.NewWaveform()}
	go ls.pump(port)
	return ls
}

func (ls *LiveSource) pump(port *Port) {
	for {
		b, err := port.ReadByte()
		if err != nil {
			ls.mu.Lock()
			ls.err = err
			ls.mu.Unlock()
			return
		}
		ls.mu.Lock()
		ls.wave.PushByte(b, gapBitTimes)
		ls.mu.Unlock()
	}
}

// Sample implements nmea.SampleSource.
func (ls *LiveSource) Sample() (int, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	slot, high := ls.wave.Sample()
	ls.ticks++
	if ls.ticks >= 4096 {
		ls.ticks = 0
		ls.wave.Compact()
	}
	return slot, high
}

// Err reports the error, if any, that ended the background read loop
// (typically the port being closed at shutdown).
func (ls *LiveSource) Err() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.err
}
