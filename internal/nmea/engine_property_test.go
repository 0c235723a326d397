package nmea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Test_pool_neverDoubleAllocates draws a sequence of alloc/release calls and
// checks the pool's core invariant: no two live allocations ever share a
// bank index, and freeCount always matches the number of bits set in free.
func Test_pool_neverDoubleAllocates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := newPool()
		live := map[int]bool{}

		ops := rapid.SliceOfN(rapid.IntRange(0, 1), 1, 200).Draw(t, "ops")
		for _, op := range ops {
			if op == 0 {
				idx := p.alloc(0)
				if idx == 0 {
					assert.Equal(t, 0, p.freeCount(), "alloc only fails when the pool is exhausted")
					continue
				}
				assert.Falsef(t, live[idx], "bank %d handed out while still live", idx)
				live[idx] = true
			} else if len(live) > 0 {
				for idx := range live {
					p.release(idx)
					delete(live, idx)
					break
				}
			}
			assert.Equal(t, BankCount-len(live), p.freeCount())
		}
	})
}

// Test_sentence_roundTripsVerbatim draws well-formed, non-empty
// printable-ASCII sentence bodies (no CR, LF, or control bytes, short enough
// to fit one bank; a lone terminator is a stray line ending, not a sentence)
// and checks that the engine emits them byte-for-byte, LF-terminated,
// with no prefix and no error counters incremented.
func Test_sentence_roundTripsVerbatim(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, BankSize).Draw(t, "n")
		body := make([]byte, n)
		for i := range body {
			body[i] = byte(rapid.IntRange(0x20, 0x7E).Draw(t, "b"))
		}

		e := NewEngine(testConfig())
		feedString(e, 0, string(body)+"\n")

		assert.Equal(t, 1, e.QueueLen())
		assert.Equal(t, uint8(0), e.Errors.ErrChannels)

		bankIdx, ok := e.queue.pop()
		assert.True(t, ok)
		b := e.pool.bank(bankIdx)
		assert.Equal(t, string(body), string(b.buf[:b.ptr]))
	})
}

// Test_sentence_overCapacityAlwaysDiscarded draws bodies strictly longer
// than one bank and checks the sentence never reaches the transmit queue
// and the bank it used is always reclaimed once the terminator arrives.
func Test_sentence_overCapacityAlwaysDiscarded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(BankSize+1, BankSize+40).Draw(t, "n")
		body := make([]byte, n)
		for i := range body {
			body[i] = byte(rapid.IntRange(0x20, 0x7E).Draw(t, "b"))
		}

		e := NewEngine(testConfig())
		feedString(e, 0, string(body)+"\n")

		assert.Equal(t, 0, e.QueueLen())
		assert.Equal(t, BankCount, e.FreeBanks())
	})
}
