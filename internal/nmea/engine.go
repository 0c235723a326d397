package nmea

import (
	"sync/atomic"
	"time"
)

// ChannelConfig is the immutable-per-lifetime configuration of one input
// line (spec section 3: suppress_mask, discard_start).
type ChannelConfig struct {
	Fast            bool
	SuppressMask    uint8
	DiscardStart    byte
	HasDiscardStart bool
	Invert          bool
}

// Config is the full set of settings the core consumes as immutable inputs
// across one sentence lifetime (spec section 1). It is assembled by a
// caller (the daemon) from the persisted settings store; the core package
// itself has no notion of how settings are stored.
type Config struct {
	Channels [ChannelCount]ChannelConfig

	PrefixEnabled bool
	Newline       NewlineMode
	OutputInvert  bool
	OutputBaud    int

	// SweepInterval overrides the stuck-bank sweep cadence (invocations of
	// StuckSweepTick between sweeps). Zero means the default, 16384.
	SweepInterval int
}

// Engine owns every piece of core state described in spec sections 3-5: the
// eight channels, the bank pool, the transmit queue, and the transmitter.
// It is driven entirely by explicit method calls from a Scheduler (or from
// a test); it starts no goroutines and owns no timers of its own besides
// the transmitter's gap timer, which is driven by an explicit `now`.
type Engine struct {
	channels [ChannelCount]*Channel
	pool     *pool
	queue    txQueue
	tx       *transmitter

	Errors ErrorCounters
	Loop   LoopProfiler

	// status holds the most recently published EngineStatus. It is the only
	// piece of engine state safe to read from a goroutine other than the
	// one driving the scheduler; everything else above is written every
	// round with no lock.
	status atomic.Value

	cfg  Config
	busy uint8 // CH_BUSY: bit i set while channels[i].timer != 0

	witnessPrev   [ChannelCount]bool
	sweepCount    int
	sweepInterval int

	// pendingStuckChannel/pendingStuckBank hold the one stuck-bank
	// candidate the previous sweep picked, awaiting release on this sweep
	// (spec section 4.9: "pick one such bank per sweep; on the next
	// sweep, free it"). -1 means nothing is pending.
	pendingStuckChannel int
	pendingStuckBank    int
}

// LoopProfiler tracks the running min/max of a repeatedly-measured
// duration, mirroring the "G" diagnostic's loop min/max time fields.
type LoopProfiler struct {
	min, max time.Duration
	have     bool
}

func (p *LoopProfiler) Observe(d time.Duration) {
	if !p.have {
		p.min, p.max, p.have = d, d, true
		return
	}
	if d < p.min {
		p.min = d
	}
	if d > p.max {
		p.max = d
	}
}

func (p *LoopProfiler) MinMax() (time.Duration, time.Duration) { return p.min, p.max }

// NewEngine builds an engine from cfg, with all channels idle and every
// bank free.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		pool:                newPool(),
		tx:                  newTransmitter(),
		pendingStuckChannel: -1,
	}
	for i := 0; i < ChannelCount; i++ {
		e.channels[i] = newChannel(i, cfg.Channels[i].Fast)
	}
	e.applyConfig(cfg)
	e.PublishStatus()
	return e
}

func (e *Engine) applyConfig(cfg Config) {
	e.cfg = cfg
	for i := 0; i < ChannelCount; i++ {
		cc := cfg.Channels[i]
		ch := e.channels[i]
		ch.SetFast(cc.Fast)
		ch.suppressMask = cc.SuppressMask
		ch.discardStart = cc.DiscardStart
		ch.hasDiscardStart = cc.HasDiscardStart
	}
	e.tx.prefixEnabled = cfg.PrefixEnabled
	e.tx.newlineMode = cfg.Newline
	if cfg.OutputBaud > 0 {
		e.tx.SetGapDuration(outputGapDuration(cfg.OutputBaud))
	}
	if cfg.SweepInterval > 0 {
		e.sweepInterval = cfg.SweepInterval
	} else {
		e.sweepInterval = defaultSweepInterval
	}
}

const defaultSweepInterval = 16384

// outputGapDuration derives the inter-sentence silence spec sections 4.7/6
// call for, roughly 30 bit-times at the configured output baud rate.
func outputGapDuration(baud int) time.Duration {
	if baud <= 0 {
		return 0
	}
	return 30 * time.Second / time.Duration(baud)
}

// Reinit fully reinitialises channel and bank state, as happens on leaving
// the configuration dialogue (spec section 6). Error counters are cleared,
// matching spec section 7's "a successful reinitialisation clears them".
func (e *Engine) Reinit(cfg Config) {
	gap := e.tx.gapDuration
	e.pool = newPool()
	e.queue = txQueue{}
	e.tx = newTransmitter()
	e.tx.SetGapDuration(gap)
	e.Errors.Reset()
	e.busy = 0
	e.witnessPrev = [ChannelCount]bool{}
	e.sweepCount = 0
	e.pendingStuckChannel = -1
	e.pendingStuckBank = 0
	for i := 0; i < ChannelCount; i++ {
		e.channels[i] = newChannel(i, cfg.Channels[i].Fast)
	}
	e.applyConfig(cfg)
	e.PublishStatus()
}

// Channel exposes read-only access to one channel's state, for diagnostics
// and tests.
func (e *Engine) Channel(idx int) *Channel { return e.channels[idx] }

// QueueLen reports how many completed sentences are waiting to transmit.
func (e *Engine) QueueLen() int { return e.queue.len() }

// FreeBanks reports how many banks are currently unassigned.
func (e *Engine) FreeBanks() int { return e.pool.freeCount() }

// SampleAndParse feeds one raw (already inversion-corrected) sample at the
// given quarter-bit-time slot into channel idx's bit parser. A frame error
// is handled immediately: the channel's in-progress bank, if any, is
// dropped right away rather than waiting for the next assembler slot,
// matching spec section 5's "Frame error -> immediate channel reset".
func (e *Engine) SampleAndParse(idx int, slot int, high bool) {
	ch := e.channels[idx]
	if ch.parser.Step(slot, high) == eventFrameError {
		e.Errors.Frame.inc()
		e.Errors.flagChannel(idx)
		e.dropChannel(ch)
	}
}

func (e *Engine) dropChannel(ch *Channel) {
	if ch.bank == bankInProgress {
		e.pool.release(ch.bankIdx)
	}
	ch.bank = bankNone
	ch.bankIdx = 0
	ch.draining = false
}

// DrainChannel consumes a completed byte from channel idx's parser, if one
// is ready, and runs it through the sentence assembler (spec section 4.5).
func (e *Engine) DrainChannel(idx int) {
	ch := e.channels[idx]
	if !ch.parser.Ready() {
		return
	}
	raw := ch.parser.Char()
	cls, mapped := classify(raw)
	e.assemble(ch, cls, mapped)
}

func (e *Engine) assemble(ch *Channel, cls byteClass, mapped byte) {
	switch ch.bank {
	case bankNone:
		e.assemblePreAllocation(ch, cls, mapped)
	case bankInProgress:
		e.assembleInProgress(ch, cls, mapped)
	case bankDiscard:
		if cls == classTerminator {
			ch.bank = bankNone
		}
	}
}

func (e *Engine) assemblePreAllocation(ch *Channel, cls byteClass, mapped byte) {
	switch {
	case cls == classTerminator:
		// A stray CR/LF between sentences; nothing to do.
		return
	case ch.hasDiscardStart && mapped == ch.discardStart && cls != classBinary:
		ch.bank = bankDiscard
		return
	case cls == classBinary:
		e.Errors.Binary.inc()
		e.Errors.flagChannel(ch.index)
		ch.bank = bankDiscard
		return
	case ch.suppressMask&e.busy != 0:
		ch.bank = bankDiscard
		return
	}

	bankIdx := e.pool.alloc(ch.index)
	if bankIdx == 0 {
		e.Errors.Congestion.inc()
		e.Errors.flagChannel(ch.index)
		ch.bank = bankDiscard
		return
	}
	b := e.pool.bank(bankIdx)
	b.append(mapped)
	ch.bank = bankInProgress
	ch.bankIdx = bankIdx
	ch.newMsg = true
}

func (e *Engine) assembleInProgress(ch *Channel, cls byteClass, mapped byte) {
	if ch.draining {
		if cls == classTerminator {
			e.pool.release(ch.bankIdx)
			ch.bank = bankNone
			ch.bankIdx = 0
			ch.draining = false
		}
		return
	}

	b := e.pool.bank(ch.bankIdx)

	switch cls {
	case classTerminator:
		ch.timer = TimerHigh
		e.busy |= 1 << uint(ch.index)
		e.queue.push(ch.bankIdx)
		ch.bank = bankNone
		ch.bankIdx = 0

	case classBinary:
		e.Errors.Binary.inc()
		e.Errors.flagChannel(ch.index)
		b.invalid = true
		ch.draining = true

	default:
		ch.newMsg = true
		if !b.append(mapped) {
			e.Errors.Overlong.inc()
			e.Errors.flagChannel(ch.index)
			b.invalid = true
			ch.draining = true
		}
	}
}

// StepTransmitter advances the transmitter state machine by one slot.
// allowDequeue controls only whether the transmitter may start a new
// sentence while idle; it reports whether it did, so a caller enforcing a
// per-round dequeue budget can track its own remaining allowance.
func (e *Engine) StepTransmitter(allowDequeue bool) (dequeued bool) {
	before := e.tx.state
	e.tx.step(&e.queue, e.pool, allowDequeue)
	return before == txIdle && e.tx.state != txIdle
}

// EngineStatus is an immutable point-in-time copy of the counters and
// occupancy figures the diagnostics endpoint and the dialogue's G command
// report. Unlike Errors, Loop, and the pool/queue occupancy they summarise,
// an EngineStatus value is safe to read from any goroutine once obtained.
type EngineStatus struct {
	Errors    Snapshot
	LoopMin   time.Duration
	LoopMax   time.Duration
	FreeBanks int
	QueueLen  int
}

// PublishStatus stores a fresh EngineStatus snapshot, matching the source's
// atomic status-publishing pattern: the scheduler goroutine is the sole
// writer of Errors, Loop, and the pool/queue, and calls this once per round
// so any other goroutine can read a consistent view via Status instead of
// touching those fields directly (spec section 5's single-writer rule).
func (e *Engine) PublishStatus() {
	min, max := e.Loop.MinMax()
	e.status.Store(EngineStatus{
		Errors:    e.Errors.Snapshot(),
		LoopMin:   min,
		LoopMax:   max,
		FreeBanks: e.pool.freeCount(),
		QueueLen:  e.queue.len(),
	})
}

// Status returns the most recently published EngineStatus. It is the only
// engine accessor safe to call from a goroutine other than the one driving
// the scheduler.
func (e *Engine) Status() EngineStatus {
	st, _ := e.status.Load().(EngineStatus)
	return st
}

// FeedUART hands the transmitter's staging slot to sink, subject to the
// inter-sentence gap timer.
func (e *Engine) FeedUART(now time.Time, sink ByteSink) {
	e.tx.feed(now, sink)
}

// SetOutputGap configures the inter-sentence gap duration, normally derived
// from ~30 bit-times at the configured output baud.
func (e *Engine) SetOutputGap(d time.Duration) {
	e.tx.SetGapDuration(d)
}

// StepTimers decrements every channel's busy timer by decrement, clearing
// CH_BUSY bits that reach zero (spec section 4.9).
func (e *Engine) StepTimers(decrement uint16) {
	for i := 0; i < ChannelCount; i++ {
		ch := e.channels[i]
		if ch.timer == 0 {
			continue
		}
		if ch.timer <= decrement {
			ch.timer = 0
			e.busy &^= 1 << uint(i)
		} else {
			ch.timer -= decrement
		}
	}
}

// Busy reports the current CH_BUSY bitmap.
func (e *Engine) Busy() uint8 { return e.busy }
