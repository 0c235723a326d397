package nmea

import "math/bits"

// BankCount is the number of fixed storage banks in the pool. Bank indices
// are 1..BankCount; index 0 is never used so that the zero value of a
// bank-index field means "no bank".
const BankCount = 11

// BankSize is the fixed payload capacity of a bank in bytes.
const BankSize = 80

// bankSlot is one fixed 80-byte buffer plus the bookkeeping the assembler and
// transmitter need to safely hand it between the receive path and the
// transmit path.
type bankSlot struct {
	buf     [BankSize]byte
	ptr     int  // write offset, 0..BankSize
	ref     int  // owning channel index, set at allocation
	invalid bool // marked by the assembler on binary/overlong; freed without emission
}

func (b *bankSlot) reset() {
	b.ptr = 0
	b.ref = 0
	b.invalid = false
}

func (b *bankSlot) append(c byte) bool {
	if b.ptr >= BankSize {
		return false
	}
	b.buf[b.ptr] = c
	b.ptr++
	return true
}

// pool is the free-bank bitmap and backing storage for all banks. Only bits
// 1..BankCount are ever set; allocation always returns the lowest-numbered
// free bank, matching the AVR source's "find lowest set bit" primitive.
type pool struct {
	free  uint16 // bit i set => bank i is free
	banks [BankCount + 1]bankSlot
}

func newPool() *pool {
	p := &pool{}
	for i := 1; i <= BankCount; i++ {
		p.free |= 1 << uint(i)
	}
	return p
}

// alloc returns the lowest free bank index, or 0 if the pool is exhausted.
func (p *pool) alloc(ref int) int {
	avail := p.free &^ 1 // bit 0 never valid
	if avail == 0 {
		return 0
	}
	idx := bits.TrailingZeros16(avail)
	p.free &^= 1 << uint(idx)
	p.banks[idx].reset()
	p.banks[idx].ref = ref
	return idx
}

// release returns bank idx to the pool. Idempotent: freeing an already-free
// bank, or bank index 0, is a no-op.
func (p *pool) release(idx int) {
	if idx <= 0 || idx > BankCount {
		return
	}
	p.free |= 1 << uint(idx)
}

func (p *pool) isFree(idx int) bool {
	if idx <= 0 || idx > BankCount {
		return true
	}
	return p.free&(1<<uint(idx)) != 0
}

func (p *pool) bank(idx int) *bankSlot {
	if idx <= 0 || idx > BankCount {
		return nil
	}
	return &p.banks[idx]
}

// freeCount reports how many banks are currently unassigned; used by tests
// and diagnostics only.
func (p *pool) freeCount() int {
	return bits.OnesCount16(p.free &^ 1)
}
