package nmea

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// byteWaveformSource wraps a Waveform so it satisfies SampleSource.
type byteWaveformSource struct{ w *Waveform }

func (s *byteWaveformSource) Sample() (int, bool) { return s.w.Sample() }

func TestScheduler_RoundDeliversFastChannelBytes(t *testing.T) {
	cfg := testConfig()
	e := NewEngine(cfg)

	w := NewWaveform()
	msg := "$GPRMC,A*00\n"
	for i := 0; i < len(msg); i++ {
		w.PushByte(msg[i], 2)
	}

	var sources [ChannelCount]SampleSource
	sources[0] = &byteWaveformSource{w: w}

	sink := &fakeSink{}
	sched := NewScheduler(e, sources, sink, TimerHigh/16)
	sched.Now = func() time.Time { return time.Unix(0, 0) }

	for i := 0; i < 4000 && string(sink.out) != msg; i++ {
		sched.Round()
	}

	require.Equal(t, msg, string(sink.out), "the sampled bit stream must round-trip through assembly and transmission")
}

func TestScheduler_SlowChannelSampledOneEighthAsOften(t *testing.T) {
	cfg := testConfig()
	cfg.Channels[0].Fast = false
	e := NewEngine(cfg)

	w := NewWaveform()
	w.PushByte('$', 4)
	sources := [ChannelCount]SampleSource{0: &byteWaveformSource{w: w}}

	sched := NewScheduler(e, sources, nil, TimerHigh/16)
	sched.Now = func() time.Time { return time.Unix(0, 0) }
	sched.Round()

	// Only two columns out of sixteen (0 and 8) sample a slow channel in
	// one round, so at most two of the waveform's samples are consumed.
	require.LessOrEqual(t, w.pos, 2)
}

func TestScheduler_HousekeepingRunsOncePerRound(t *testing.T) {
	e := NewEngine(testConfig())
	feedString(e, 0, "$GPRMC,A*00\n")
	e.channels[0].timer = TimerHigh

	var sources [ChannelCount]SampleSource
	sched := NewScheduler(e, sources, nil, TimerHigh)
	sched.Now = func() time.Time { return time.Unix(0, 0) }

	sched.Round()
	require.Equal(t, uint8(0), e.Busy(), "one round's worth of decrement should clear the busy bit")
}

func TestScheduler_SentenceCompletedThisRoundDoesNotTransmitUntilNextRound(t *testing.T) {
	cfg := testConfig()
	e := NewEngine(cfg)

	w := NewWaveform()
	w.PushByte('$', 2)
	w.PushByte('\n', 2)
	var sources [ChannelCount]SampleSource
	sources[0] = &byteWaveformSource{w: w}

	sink := &fakeSink{}
	sched := NewScheduler(e, sources, sink, TimerHigh/16)
	sched.Now = func() time.Time { return time.Unix(0, 0) }

	// Drive rounds until the sentence has been assembled (queued) but stop
	// short of running the round after that: nothing may have reached the
	// sink yet, matching spec section 4.8's "no earlier than round r+1".
	queued := false
	for i := 0; i < 4000 && !queued; i++ {
		sched.Round()
		queued = e.QueueLen() > 0
	}
	require.True(t, queued, "sentence must have been assembled within the step budget")
	require.Empty(t, sink.out, "a sentence must not reach the sink in the same round it was queued")

	for i := 0; i < 4000 && string(sink.out) != "$\n"; i++ {
		sched.Round()
	}
	require.Equal(t, "$\n", string(sink.out), "the sentence must still transmit in a later round")
}

func TestScheduler_ConfigPinAssertedRunsDialogue(t *testing.T) {
	e := NewEngine(testConfig())
	feedString(e, 0, "\x01\n")
	require.NotZero(t, e.Errors.Binary)

	var sources [ChannelCount]SampleSource
	sched := NewScheduler(e, sources, nil, 1)
	sched.Now = func() time.Time { return time.Unix(0, 0) }
	sched.Pin = &fakePin{asserted: true}
	sched.Dialogue = &fakeDialogue{cfg: testConfig(), run: true}

	sched.Round()
	require.Zero(t, e.Errors.Binary, "the dialogue's reinit must clear error counters within the round")
}
