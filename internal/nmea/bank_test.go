package nmea

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_AllocReturnsLowestFreeIndex(t *testing.T) {
	p := newPool()
	require.Equal(t, BankCount, p.freeCount())

	idx := p.alloc(3)
	require.Equal(t, 1, idx)
	require.Equal(t, BankCount-1, p.freeCount())
	require.False(t, p.isFree(1))
	require.Equal(t, 3, p.bank(1).ref)
}

func TestPool_AllocSkipsHeldBanks(t *testing.T) {
	p := newPool()
	first := p.alloc(0)
	second := p.alloc(0)
	require.Equal(t, 1, first)
	require.Equal(t, 2, second)

	p.release(first)
	third := p.alloc(0)
	require.Equal(t, 1, third, "released bank is the new lowest free index")
}

func TestPool_AllocExhaustion(t *testing.T) {
	p := newPool()
	for i := 0; i < BankCount; i++ {
		require.NotEqual(t, 0, p.alloc(0))
	}
	require.Equal(t, 0, p.freeCount())
	require.Equal(t, 0, p.alloc(0), "pool exhausted must report failure, not corrupt state")
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	p := newPool()
	idx := p.alloc(0)
	p.release(idx)
	require.True(t, p.isFree(idx))
	require.NotPanics(t, func() { p.release(idx) })
	require.NotPanics(t, func() { p.release(0) })
	require.NotPanics(t, func() { p.release(BankCount + 1) })
	require.Equal(t, BankCount, p.freeCount())
}

func TestBankSlot_AppendStopsAtCapacity(t *testing.T) {
	p := newPool()
	idx := p.alloc(0)
	b := p.bank(idx)
	for i := 0; i < BankSize; i++ {
		require.True(t, b.append(byte('a'+i%26)), "byte %d should fit", i)
	}
	require.False(t, b.append('x'), "81st byte must not fit in an 80-byte bank")
	require.Equal(t, BankSize, b.ptr)
}

func TestBankSlot_ResetClearsBookkeeping(t *testing.T) {
	p := newPool()
	idx := p.alloc(5)
	b := p.bank(idx)
	b.append('a')
	b.invalid = true
	b.reset()
	require.Equal(t, 0, b.ptr)
	require.Equal(t, 0, b.ref)
	require.False(t, b.invalid)
}
