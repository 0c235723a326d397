package nmea

// samplesPerBit is the oversampling factor the parser is built against: four
// quarter-bit-time samples per bit, per spec section 4.1.
const samplesPerBit = 4

// Waveform turns a stream of raw quarter-bit-time samples into the
// (slot, high) pairs the port sampler feeds to a parser's Step. It stands
// in for the bit-banged GPIO reads of the source: on a hosted target the
// underlying bytes usually already arrived framed by a real UART (a tty
// opened via internal/serialio) or were generated synthetically by a test,
// and PushByte re-derives the sample-level view the parser is built
// against so the same parser code path is exercised either way. PushSample
// appends single samples, for building non-uniform windows a real 8-N-1
// byte can't produce on its own.
type Waveform struct {
	samples []bool
	pos     int // global sample index; slot = pos % samplesPerBit
}

// NewWaveform creates a waveform with nothing queued; Sample returns
// idle-high forever until something is pushed.
func NewWaveform() *Waveform {
	return &Waveform{}
}

// PushSample appends one raw quarter-bit-time sample.
func (w *Waveform) PushSample(high bool) {
	w.samples = append(w.samples, high)
}

// PushByte encodes one 8-N-1 frame (start bit low, 8 data bits LSB first,
// stop bit high), each held steady across its four quarter-bit-time
// samples, followed by gapBitTimes bit-times of idle-high.
func (w *Waveform) PushByte(b byte, gapBitTimes int) {
	w.pushBitTime(false) // start bit
	for i := 0; i < 8; i++ {
		w.pushBitTime((b>>uint(i))&1 == 1)
	}
	w.pushBitTime(true) // stop bit
	for i := 0; i < gapBitTimes; i++ {
		w.pushBitTime(true)
	}
}

func (w *Waveform) pushBitTime(high bool) {
	for i := 0; i < samplesPerBit; i++ {
		w.samples = append(w.samples, high)
	}
}

// Sample returns the next quarter-bit-time sample and the bit-time slot
// (0..3) it occupies. Once the queue is drained it returns idle-high
// forever, matching a real line at rest.
func (w *Waveform) Sample() (slot int, high bool) {
	slot = w.pos % samplesPerBit
	if w.pos < len(w.samples) {
		high = w.samples[w.pos]
	} else {
		high = true
	}
	w.pos++
	return slot, high
}

// Pending reports whether there is still queued data left to emit.
func (w *Waveform) Pending() bool {
	return w.pos < len(w.samples)
}

// Reset rewinds the waveform and clears its queue.
func (w *Waveform) Reset() {
	w.samples = w.samples[:0]
	w.pos = 0
}

// Compact discards already-consumed samples, bounding memory growth for a
// waveform fed continuously (e.g. from a live serial port). It only
// drops whole bit-times so the slot cadence (pos % samplesPerBit) is
// unaffected.
func (w *Waveform) Compact() {
	keepFrom := (w.pos / samplesPerBit) * samplesPerBit
	if keepFrom == 0 {
		return
	}
	w.samples = append([]bool(nil), w.samples[keepFrom:]...)
	w.pos -= keepFrom
}
