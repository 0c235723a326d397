package nmea

// StuckSweepTick implements the stuck-bank watchdog (spec sections 4.9,
// 8, 9). Scheduler.Round calls it once per round; internally it only acts
// every sweepInterval calls (16,384 by default, about 1.7 s at
// nominalRoundPeriod).
//
// A channel becomes a stuck candidate once it has produced no byte across
// two consecutive observation windows; the two-window requirement is what
// makes candidate detection race-safe against a sentence completing in the
// same round the sweep runs, since a channel that just produced a byte
// this window always has newMsg set for that window (spec section 9's open
// question about this race).
//
// Spec section 4.9 spreads the actual release across two sweeps: a sweep
// picks at most one candidate bank, and it is the *next* sweep -- one
// sweepInterval later -- that frees it. This sweep therefore does two things in
// order: first, free whatever the previous sweep picked (if it's still the
// same in-progress bank; a channel that has since completed or been reset
// on its own is left alone), then scan for a new candidate to hand to the
// following sweep.
func (e *Engine) StuckSweepTick() {
	e.sweepCount++
	interval := e.sweepInterval
	if interval == 0 {
		interval = defaultSweepInterval
	}
	if e.sweepCount < interval {
		return
	}
	e.sweepCount = 0

	if e.pendingStuckChannel >= 0 {
		ch := e.channels[e.pendingStuckChannel]
		if ch.bank == bankInProgress && ch.bankIdx == e.pendingStuckBank {
			e.pool.release(ch.bankIdx)
			e.Errors.flagChannel(e.pendingStuckChannel)
			e.Errors.Slow.inc()
			ch.bank = bankNone
			ch.bankIdx = 0
			ch.draining = false
		}
		e.pendingStuckChannel = -1
	}

	for i := 0; i < ChannelCount; i++ {
		ch := e.channels[i]
		curWitness := ch.newMsg
		if e.pendingStuckChannel < 0 && ch.bank == bankInProgress && !curWitness && !e.witnessPrev[i] {
			e.pendingStuckChannel = i
			e.pendingStuckBank = ch.bankIdx
		}
		e.witnessPrev[i] = curWitness
		ch.newMsg = false
	}
}

// ConfigPin abstracts the configuration pin's asserted (pulled low) state,
// polled from a reserved housekeeping slot (spec section 4.9).
type ConfigPin interface {
	Asserted() bool
}

// Dialogue runs the interactive configuration dialogue to completion; it is
// an external collaborator (spec section 1) invoked only through this
// hook.
type Dialogue interface {
	Run() (Config, bool)
}

// PollConfig checks pin; if asserted, hands control to dialogue and
// reinitialises all channel/bank state with whatever configuration the
// dialogue returns (spec section 6, exit/halt semantics). It reports
// whether the dialogue ran.
func (e *Engine) PollConfig(pin ConfigPin, dialogue Dialogue) bool {
	if pin == nil || !pin.Asserted() {
		return false
	}
	if dialogue == nil {
		return false
	}
	newCfg, changed := dialogue.Run()
	if !changed {
		newCfg = e.cfg
	}
	e.Reinit(newCfg)
	return true
}
