package gpioconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakePin is a minimal in-package Pin used to exercise the interface
// contract without touching real hardware or the platform-specific
// backends.
type fakePin struct{ low bool }

func (p *fakePin) Asserted() bool { return p.low }
func (p *fakePin) Close() error   { return nil }

func TestPin_AssertedReflectsLineLevel(t *testing.T) {
	var p Pin = &fakePin{low: false}
	require.False(t, p.Asserted())

	p = &fakePin{low: true}
	require.True(t, p.Asserted())
}

// fakeOutputPin exercises the OutputPin interface contract the same way.
type fakeOutputPin struct {
	asserted bool
	released bool
	closed   bool
}

func (p *fakeOutputPin) Assert() error  { p.asserted = true; p.released = false; return nil }
func (p *fakeOutputPin) Release() error { p.released = true; p.asserted = false; return nil }
func (p *fakeOutputPin) Close() error   { p.closed = true; return nil }

func TestOutputPin_AssertThenReleaseRoundTrips(t *testing.T) {
	var p OutputPin = &fakeOutputPin{}
	require.NoError(t, p.Assert())
	require.True(t, p.(*fakeOutputPin).asserted)

	require.NoError(t, p.Release())
	require.False(t, p.(*fakeOutputPin).asserted)
	require.True(t, p.(*fakeOutputPin).released)

	require.NoError(t, p.Close())
	require.True(t, p.(*fakeOutputPin).closed)
}
