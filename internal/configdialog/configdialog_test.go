package configdialog

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nmuxd/internal/nmea"
	"nmuxd/internal/settings"
)

// pipeConn feeds Run() a fixed script of input lines and records everything
// written back, standing in for the real tty/pipe connection.
type pipeConn struct {
	in  *strings.Reader
	out bytes.Buffer
}

func (p *pipeConn) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *pipeConn) Write(b []byte) (int, error) { return p.out.Write(b) }

func newDialogue(t *testing.T, script string) (*Dialogue, *pipeConn) {
	t.Helper()
	st, err := settings.Load(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	d := New(st, nmea.NewEngine(nmea.Config{}))
	conn := &pipeConn{in: strings.NewReader(script)}
	d.Conn = conn
	return d, conn
}

func TestDialogue_SetsPrefixFlag(t *testing.T) {
	d, conn := newDialogue(t, "C1\n")
	cfg, changed := d.Run()
	require.True(t, changed)
	require.True(t, cfg.PrefixEnabled)
	require.Equal(t, "Ok\n", conn.out.String())
}

func TestDialogue_MalformedLineReportsError(t *testing.T) {
	d, conn := newDialogue(t, "Z\n")
	_, changed := d.Run()
	require.False(t, changed)
	require.Equal(t, "Error\n", conn.out.String())
}

func TestDialogue_DiscardStartByteAppliesToRightChannel(t *testing.T) {
	d, _ := newDialogue(t, "D321\n")
	cfg, changed := d.Run()
	require.True(t, changed)
	require.Equal(t, byte(0x21), cfg.Channels[2].DiscardStart)
	require.True(t, cfg.Channels[2].HasDiscardStart)
	for i, ch := range cfg.Channels {
		if i == 2 {
			continue
		}
		require.False(t, ch.HasDiscardStart)
	}
}

func TestDialogue_BadHexArgumentIsRejected(t *testing.T) {
	d, conn := newDialogue(t, "IZZ\n")
	_, changed := d.Run()
	require.False(t, changed)
	require.Equal(t, "Error\n", conn.out.String())
}

func TestDialogue_PPrintsRawSettingsWithoutMutating(t *testing.T) {
	d, conn := newDialogue(t, "P\n")
	_, changed := d.Run()
	require.False(t, changed)
	lines := strings.Split(strings.TrimSpace(conn.out.String()), "\n")
	require.Len(t, lines, 2)
	require.Len(t, lines[0], settings.RawSize*2) // hex-encoded byte layout
	require.Equal(t, "Ok", lines[1])
}

func TestDialogue_GPrintsDiagnostics(t *testing.T) {
	d, conn := newDialogue(t, "G\n")
	_, changed := d.Run()
	require.False(t, changed)
	require.Contains(t, conn.out.String(), "version=")
	require.Contains(t, conn.out.String(), "congestion=")
}

func TestDialogue_SaveThenReloadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	st, err := settings.Load(path)
	require.NoError(t, err)

	d := New(st, nmea.NewEngine(nmea.Config{}))
	d.Conn = &pipeConn{in: strings.NewReader("C1\nS\n")}
	_, changed := d.Run()
	require.True(t, changed)

	reloaded, err := settings.Load(path)
	require.NoError(t, err)
	require.True(t, reloaded.User.PrefixEnabled)
}

func TestDialogue_BaudOutOfRangeRejected(t *testing.T) {
	d, conn := newDialogue(t, "B9\n")
	_, changed := d.Run()
	require.False(t, changed)
	require.Equal(t, "Error\n", conn.out.String())
}

func TestDialogue_StopsWhenPinReleased(t *testing.T) {
	d, _ := newDialogue(t, "C1\nC0\nC1\n")
	// The pin reads asserted for the first check (after line 1) and
	// released for the second (after line 2), so line 3 is never reached.
	calls := 0
	d.Pin = pinFunc(func() bool {
		calls++
		return calls < 2
	})
	cfg, changed := d.Run()
	require.True(t, changed)
	require.False(t, cfg.PrefixEnabled, "line 3's C1 must never run once the pin released after line 2")
}

type pinFunc func() bool

func (f pinFunc) Asserted() bool { return f() }
