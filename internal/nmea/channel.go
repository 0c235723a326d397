package nmea

// ChannelCount is the number of independent input lines the multiplexer
// serves.
const ChannelCount = 8

// TimerHigh is the value the busy timer is set to on completion of each
// sentence; it ticks down to zero over roughly 2.5 seconds of housekeeping
// steps.
const TimerHigh uint16 = 0xE800

// bankState is the tagged variant replacing the source's bank-index
// sentinels (spec section 9): a channel either holds no bank, is filling a
// real bank, or is discarding bytes until the next terminator.
type bankState int

const (
	bankNone bankState = iota
	bankInProgress
	bankDiscard
)

// Channel is the per-input-line state described in spec section 3.
type Channel struct {
	index int
	fast  bool

	parser *parser

	bank    bankState
	bankIdx int // valid only when bank == bankInProgress

	// draining is set once an in-progress sentence has been marked invalid
	// (binary byte or overlong) and the channel is absorbing bytes up to
	// the next terminator without storing them.
	draining bool

	suppressMask    uint8
	discardStart    byte
	hasDiscardStart bool

	timer uint16

	// newMsg is set by the assembler whenever a byte lands in this
	// channel's bank during the current stuck-sweep observation window; it
	// is the per-channel half of the stuck-bank detector's witness.
	newMsg bool
}

func newChannel(index int, fast bool) *Channel {
	return &Channel{
		index:  index,
		fast:   fast,
		parser: newParser(fast),
		bank:   bankNone,
	}
}

// Busy reports whether the channel's timer has not yet decayed to zero.
func (c *Channel) Busy() bool { return c.timer != 0 }

// reset returns the channel to its power-on state, used both at
// construction and when the core reinitialises on leaving the
// configuration dialogue (spec section 6, "Exit/halt semantics").
func (c *Channel) reset() {
	c.parser.resetToWaiting()
	c.bank = bankNone
	c.bankIdx = 0
	c.draining = false
	c.timer = 0
	c.newMsg = false
}

// SetFast reconfigures the channel's nominal baud class: the frame-error
// recovery threshold (spec section 4.2) and, through Scheduler.Round, how
// often the channel is sampled.
func (c *Channel) SetFast(fast bool) {
	c.fast = fast
	c.parser.fast = fast
}
