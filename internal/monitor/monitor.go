// Package monitor serves the latest processed frame, the processing counters
// and heatmap debug views over HTTP.
package monitor

import (
	"sync"
	"time"

	"github.com/banshee-data/touchd/internal/monitoring"
	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/l1reports"
	"github.com/banshee-data/touchd/internal/touch/l2heatmap"
	"github.com/banshee-data/touchd/internal/touch/pipeline"
)

// Snapshot is a copy of the most recent pipeline output.
type Snapshot struct {
	Seq      uint64
	Time     time.Time
	Contacts touch.Frame
	Heatmap  *l2heatmap.Grid[float64]
	Metadata *l1reports.Metadata
}

// Monitor is a pipeline sink that keeps the latest output for the HTTP
// handlers. Consume and the readers may run concurrently.
type Monitor struct {
	stats *monitoring.Stats

	mu      sync.RWMutex
	latest  Snapshot
	have    bool
	healthy bool
}

// New returns a monitor reporting stats. stats may be nil.
func New(stats *monitoring.Stats) *Monitor {
	return &Monitor{stats: stats}
}

// Consume copies the frame and heatmap of out.
func (m *Monitor) Consume(out pipeline.Output) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest.Seq = out.Seq
	m.latest.Time = out.Time
	m.latest.Contacts = out.Contacts.CopyInto(m.latest.Contacts)
	if out.Heatmap != nil {
		if m.latest.Heatmap == nil {
			m.latest.Heatmap = l2heatmap.NewGrid[float64](0, 0)
		}
		m.latest.Heatmap.CopyFrom(out.Heatmap)
	} else {
		m.latest.Heatmap = nil
	}
	if out.Metadata != nil {
		md := *out.Metadata
		m.latest.Metadata = &md
	} else {
		m.latest.Metadata = nil
	}
	m.have = true
	return nil
}

// Latest returns a deep copy of the last consumed output. ok is false until
// the first frame arrives.
func (m *Monitor) Latest() (snap Snapshot, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.have {
		return Snapshot{}, false
	}
	snap = m.latest
	snap.Contacts = m.latest.Contacts.Clone()
	if m.latest.Heatmap != nil {
		snap.Heatmap = l2heatmap.NewGrid[float64](0, 0)
		snap.Heatmap.CopyFrom(m.latest.Heatmap)
	}
	if m.latest.Metadata != nil {
		md := *m.latest.Metadata
		snap.Metadata = &md
	}
	return snap, true
}

// SetHealthy records whether the device loop is currently delivering
// reports. It matches the runtime's OnHealth callback.
func (m *Monitor) SetHealthy(ok bool) {
	m.mu.Lock()
	m.healthy = ok
	m.mu.Unlock()
}

// Healthy reports the last value passed to SetHealthy.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

// Stats returns a snapshot of the processing counters.
func (m *Monitor) Stats() monitoring.StatsSnapshot {
	if m.stats == nil {
		return monitoring.StatsSnapshot{}
	}
	return m.stats.Snapshot()
}
