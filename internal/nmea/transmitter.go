package nmea

import "time"

// txState is the transmitter's one-hot state, spec section 4.7.
type txState int

const (
	txIdle txState = iota
	txSetupPrefix
	txSetupPointer
	txStream
	txFinishA
	txFinishB
)

// NewlineMode selects the sentence terminator the transmitter appends.
type NewlineMode int

const (
	NewlineLFOnly NewlineMode = iota
	NewlineCRLF
)

// transmitter copies one bank's payload through a one-byte staging slot,
// optionally prefixed with the originating channel digit, and terminated
// per NewlineMode.
type transmitter struct {
	state   txState
	bankIdx int
	ptr     int
	end     int

	prefixEnabled bool
	newlineMode   NewlineMode

	staging     byte
	stagingFull bool

	gapUntil    time.Time
	gapArmed    bool
	gapDuration time.Duration
}

func newTransmitter() *transmitter {
	return &transmitter{state: txIdle}
}

// SetGapDuration configures the inter-sentence silence the gap timer
// enforces; spec section 4.7 calls for roughly 30 bit-times at the output
// baud rate.
func (t *transmitter) SetGapDuration(d time.Duration) {
	t.gapDuration = d
}

// step advances the transmitter state machine by one scheduler slot. It may
// dequeue a bank, free a bank, or place one byte into the staging slot.
// allowDequeue gates the txIdle transition only: when false, a sentence
// already queued is left alone until a later call allows it, which is how
// the scheduler keeps a sentence completed in round r off the wire before
// round r+1 (spec section 4.8). It never blocks a bank already in transit.
func (t *transmitter) step(q *txQueue, p *pool, allowDequeue bool) {
	switch t.state {
	case txIdle:
		if !allowDequeue {
			return
		}
		bankIdx, ok := q.pop()
		if !ok {
			return
		}
		t.bankIdx = bankIdx
		if t.prefixEnabled {
			t.state = txSetupPrefix
		} else {
			t.state = txSetupPointer
		}

	case txSetupPrefix:
		b := p.bank(t.bankIdx)
		if b == nil {
			t.state = txIdle
			return
		}
		if !t.stagingFull {
			t.staging = '1' + byte(b.ref)
			t.stagingFull = true
			t.state = txSetupPointer
		}

	case txSetupPointer:
		b := p.bank(t.bankIdx)
		if b == nil {
			t.state = txIdle
			return
		}
		t.ptr = 0
		t.end = b.ptr
		t.state = txStream

	case txStream:
		if t.stagingFull {
			return
		}
		b := p.bank(t.bankIdx)
		if b == nil {
			t.state = txIdle
			return
		}
		if t.ptr >= t.end {
			t.state = txFinishA
			return
		}
		t.staging = b.buf[t.ptr]
		t.ptr++
		t.stagingFull = true

	case txFinishA:
		if t.stagingFull {
			return
		}
		if t.newlineMode == NewlineCRLF {
			t.staging = '\r'
			t.stagingFull = true
			t.state = txFinishB
			return
		}
		// \n-only mode stages its one terminator byte here and, per spec
		// section 4.7's FINISH_A, frees the bank immediately rather than
		// waiting for a further step: the bank's contents are already
		// copied into staging, so nothing downstream still reads it.
		t.staging = '\n'
		t.stagingFull = true
		p.release(t.bankIdx)
		t.bankIdx = 0
		t.state = txIdle

	case txFinishB:
		if t.stagingFull {
			return
		}
		t.staging = '\n'
		t.stagingFull = true
		p.release(t.bankIdx)
		t.bankIdx = 0
		t.state = txIdle
	}
}

// feed hands the staging slot to the hardware UART sink, subject to the
// sink being ready and the inter-sentence gap having expired. It is invoked
// from a separate scheduler slot than step, per spec section 4.7.
func (t *transmitter) feed(now time.Time, sink ByteSink) {
	if !t.stagingFull {
		return
	}
	if t.gapArmed && now.Before(t.gapUntil) {
		return
	}
	if !sink.Ready() {
		return
	}
	b := t.staging
	sink.Write(b)
	t.stagingFull = false
	if b == '\n' {
		t.gapUntil = now.Add(t.gapDuration)
		t.gapArmed = true
	}
}

// ByteSink is the hardware UART transmit register, or a synthetic
// equivalent in tests.
type ByteSink interface {
	Ready() bool
	Write(b byte)
}
