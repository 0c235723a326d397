package nmea

import "time"

// columnsPerRound is the number of scheduling columns in one pass of the
// loop (spec section 4.8). A fast channel is sampled once per column and
// completes one full bit-time (four quarter-bit samples) every four
// columns; sixteen columns therefore give every fast channel four
// bit-times per round.
const columnsPerRound = 16

// slowSampleDivisor is how many columns separate consecutive quarter-bit
// samples of a slow channel, giving slow channels a bit period eight times
// longer than fast channels' (spec section 4.1: "spread across eight bit
// times of the fast schedule").
const slowSampleDivisor = 8

// SampleSource produces the quarter-bit-time sample train for one input
// line. *Waveform implements it.
type SampleSource interface {
	Sample() (slot int, high bool)
}

// nominalRoundPeriod is the wall-clock stand-in for one 3,333-cycle round
// at the source's 32 MHz instruction clock.
const nominalRoundPeriod = 104 * time.Microsecond

// Scheduler is the hosted, tick-triggered replacement for the source's
// cycle-exact cooperative loop (spec section 4.8, section 9's Design
// Notes). It preserves the ordering and cadence invariants -- every
// channel sampled at its scheduled rate with no jitter between the calls
// that make up one quarter-bit sample, housekeeping running once per round,
// a byte assembled in round r never reaching the transmitter before round
// r+1 -- rather than the AVR's literal instruction-cycle budget.
type Scheduler struct {
	Engine  *Engine
	Sources [ChannelCount]SampleSource
	Sink    ByteSink
	Pin     ConfigPin
	Dialogue Dialogue

	// Now returns the current time for the transmitter's gap timer. Tests
	// may override it with a manually-advanced clock.
	Now func() time.Time

	// TimerDecrementPerRound controls how fast each channel's busy timer
	// decays; spec section 3 wants roughly 2.5s total from TimerHigh.
	TimerDecrementPerRound uint16

	colCount [ChannelCount]int
	round    int
}

// NewScheduler wires an engine to its sample sources and output sink. If
// decrementPerRound is 0, a default is chosen assuming nominalRoundPeriod
// per round, targeting TimerHigh decaying to zero in about 2.5 seconds.
func NewScheduler(e *Engine, sources [ChannelCount]SampleSource, sink ByteSink, decrementPerRound uint16) *Scheduler {
	if decrementPerRound == 0 {
		roundsFor2500ms := (2500 * time.Millisecond) / nominalRoundPeriod
		if roundsFor2500ms < 1 {
			roundsFor2500ms = 1
		}
		decrementPerRound = uint16(uint32(TimerHigh) / uint32(roundsFor2500ms))
		if decrementPerRound == 0 {
			decrementPerRound = 1
		}
	}
	return &Scheduler{
		Engine:                 e,
		Sources:                sources,
		Sink:                   sink,
		Now:                    time.Now,
		TimerDecrementPerRound: decrementPerRound,
	}
}

// Round executes one 16-column pass: every channel is sampled at its
// scheduled cadence and, on each column, the transmitter advances and the
// staging slot is offered to the sink. Housekeeping (timer decay, the
// stuck-bank sweep, and the configuration-pin poll) runs once at the end of
// the round, matching the source's "reserved slot" cadence without pinning
// it to a specific column (spec section 9's instruction to preserve
// invariants, not cycle placement).
//
// eligible caps how many sentences the transmitter may pull off the queue
// during this round to exactly the number that were already queued when
// the round started; it is captured before any of this round's sampling or
// assembly runs, so a sentence completed partway through the round cannot
// be dequeued until the round after it (spec section 4.8).
func (s *Scheduler) Round() {
	eligible := s.Engine.QueueLen()

	for col := 0; col < columnsPerRound; col++ {
		for i := 0; i < ChannelCount; i++ {
			ch := s.Engine.channels[i]
			divisor := 1
			if !ch.fast {
				divisor = slowSampleDivisor
			}
			if s.colCount[i]%divisor == 0 {
				src := s.Sources[i]
				if src != nil {
					slot, high := src.Sample()
					s.Engine.SampleAndParse(i, slot, high)
					s.Engine.DrainChannel(i)
				}
			}
			s.colCount[i]++
		}

		if s.Engine.StepTransmitter(eligible > 0) {
			eligible--
		}
		if s.Sink != nil {
			s.Engine.FeedUART(s.Now(), s.Sink)
		}
	}

	s.Engine.StepTimers(s.TimerDecrementPerRound)
	s.Engine.StuckSweepTick()
	s.Engine.PollConfig(s.Pin, s.Dialogue)

	s.Engine.PublishStatus()
	s.round++
}

// Run drives Round in a loop paced by period until ctx-like stop returns
// true. It is a thin convenience for cmd/nmuxd; tests normally call Round
// directly for determinism.
func (s *Scheduler) Run(period time.Duration, stop func() bool) {
	if period <= 0 {
		period = nominalRoundPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		if stop != nil && stop() {
			return
		}
		<-ticker.C
		start := time.Now()
		s.Round()
		s.Engine.Loop.Observe(time.Since(start))
	}
}
