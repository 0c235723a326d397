// Package diag exposes the same counters the dialogue grammar's G command
// prints, over HTTP, as a read-only mirror for external monitoring. It
// never touches internal/settings, and it never reads internal/nmea.Engine's
// live counters directly either: those are mutated every round by the
// scheduler goroutine with no lock, so Take reads the immutable
// EngineStatus the scheduler publishes instead, preserving spec section 5's
// single-writer-per-resource rule.
package diag

import (
	"sync/atomic"
	"time"

	"nmuxd/internal/nmea"
)

// Status tracks the small set of daemon-wide facts the diagnostics
// snapshot needs but that don't live on the engine itself: build identity
// and wall-clock uptime.
type Status struct {
	startUnixNano int64
	version       atomic.Value // string
	board         atomic.Value // string
}

func NewStatus(version, board string) *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.version.Store(version)
	s.board.Store(board)
	return s
}

// Snapshot is the JSON body served at /api/status. Field names mirror the
// dialogue grammar's G output rather than inventing a parallel vocabulary.
type Snapshot struct {
	Version     string `json:"version"`
	Board       string `json:"board"`
	NowUTC      string `json:"now_utc"`
	UptimeSec   int64  `json:"uptime_sec"`
	LoopMinUS   int64  `json:"loop_min_us"`
	LoopMaxUS   int64  `json:"loop_max_us"`
	Congestion  uint8  `json:"congestion"`
	Frame       uint8  `json:"frame"`
	Overlong    uint8  `json:"overlong"`
	Binary      uint8  `json:"binary"`
	Slow        uint8  `json:"slow"`
	ErrChannels uint8  `json:"err_channels"`
	FreeBanks   int    `json:"free_banks"`
	QueueLen    int    `json:"queue_len"`
}

// Take builds a Snapshot from the current status and the engine's most
// recently published EngineStatus. It is safe to call concurrently with the
// engine's own scheduler goroutine: e.Status loads an already-immutable
// value, so this never races the scheduler's writes to Errors, Loop, or the
// pool/queue.
func (s *Status) Take(e *nmea.Engine) Snapshot {
	now := time.Now().UTC()
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	st := e.Status()

	return Snapshot{
		Version:     s.version.Load().(string),
		Board:       s.board.Load().(string),
		NowUTC:      now.Format(time.RFC3339Nano),
		UptimeSec:   int64(now.Sub(start).Seconds()),
		LoopMinUS:   st.LoopMin.Microseconds(),
		LoopMaxUS:   st.LoopMax.Microseconds(),
		Congestion:  st.Errors.Congestion,
		Frame:       st.Errors.Frame,
		Overlong:    st.Errors.Overlong,
		Binary:      st.Errors.Binary,
		Slow:        st.Errors.Slow,
		ErrChannels: st.Errors.ErrChannels,
		FreeBanks:   st.FreeBanks,
		QueueLen:    st.QueueLen,
	}
}
