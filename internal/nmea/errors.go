package nmea

// saturatingCounter increments up to 0xFF and then holds, matching spec
// section 7's saturation rule.
type saturatingCounter uint8

func (c *saturatingCounter) inc() {
	if *c != 0xFF {
		*c++
	}
}

// ErrorCounters tallies the error taxonomy from spec section 7. All are
// diagnostic-only; the receive/store/emit engine never returns them as Go
// errors, only via these counters.
type ErrorCounters struct {
	Congestion saturatingCounter
	Frame      saturatingCounter
	Overlong   saturatingCounter
	Binary     saturatingCounter
	Slow       saturatingCounter

	// ErrChannels marks, per bit, every channel that has contributed to any
	// error since the last reinitialisation.
	ErrChannels uint8
}

func (e *ErrorCounters) flagChannel(idx int) {
	e.ErrChannels |= 1 << uint(idx)
}

// Reset clears every counter, as happens on a successful reinitialisation
// (spec section 7).
func (e *ErrorCounters) Reset() {
	*e = ErrorCounters{}
}

// Snapshot is a plain-data copy of the counters suitable for the
// diagnostics `G` command and the HTTP diagnostics endpoint.
type Snapshot struct {
	Congestion  uint8
	Frame       uint8
	Overlong    uint8
	Binary      uint8
	Slow        uint8
	ErrChannels uint8
}

func (e *ErrorCounters) Snapshot() Snapshot {
	return Snapshot{
		Congestion:  uint8(e.Congestion),
		Frame:       uint8(e.Frame),
		Overlong:    uint8(e.Overlong),
		Binary:      uint8(e.Binary),
		Slow:        uint8(e.Slow),
		ErrChannels: e.ErrChannels,
	}
}
