package monitoring

import (
	"sync"
	"time"
)

// Stats counts what the processing loop did. All methods are safe for
// concurrent use: the loop writes while the monitor reads snapshots.
type Stats struct {
	mu sync.Mutex
	s  StatsSnapshot
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Reports        uint64        `json:"reports"`
	Frames         uint64        `json:"frames"`
	Contacts       uint64        `json:"contacts"`
	StableContacts uint64        `json:"stable_contacts"`
	ParseErrors    uint64        `json:"parse_errors"`
	SourceErrors   uint64        `json:"source_errors"`
	Resets         uint64        `json:"resets"`
	LastCycle      time.Duration `json:"last_cycle_ns"`
	LastFrameAt    time.Time     `json:"last_frame_at"`
}

// StableRatio returns the share of reported contacts that were stable.
func (s StatsSnapshot) StableRatio() float64 {
	if s.Contacts == 0 {
		return 0
	}
	return float64(s.StableContacts) / float64(s.Contacts)
}

// RecordReport counts a raw report read from the device.
func (st *Stats) RecordReport() {
	st.mu.Lock()
	st.s.Reports++
	st.mu.Unlock()
}

// RecordFrame counts one processed touch frame.
func (st *Stats) RecordFrame(contacts, stable int, took time.Duration, at time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Frames++
	st.s.Contacts += uint64(contacts)
	st.s.StableContacts += uint64(stable)
	st.s.LastCycle = took
	st.s.LastFrameAt = at
}

// RecordParseError counts a report that could not be decoded.
func (st *Stats) RecordParseError() {
	st.mu.Lock()
	st.s.ParseErrors++
	st.mu.Unlock()
}

// RecordSourceError counts a failed device read.
func (st *Stats) RecordSourceError() {
	st.mu.Lock()
	st.s.SourceErrors++
	st.mu.Unlock()
}

// RecordReset counts a pipeline reset.
func (st *Stats) RecordReset() {
	st.mu.Lock()
	st.s.Resets++
	st.mu.Unlock()
}

// Snapshot returns a copy of the counters.
func (st *Stats) Snapshot() StatsSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}
