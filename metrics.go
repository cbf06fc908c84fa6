package evpoll

import "sync"

// Metrics tracks the handful of numbers a tick produces: how long the
// kernel wait actually blocked (load metric), how many ticks have run,
// and how many events were dispatched. A mutex-guarded accumulator
// struct, gated behind a WithMetrics option so callers who don't want
// it pay nothing.
type Metrics struct {
	mu sync.Mutex

	Ticks          uint64
	EventsTotal    uint64
	IdleMsTotal    int64
	LastIdleMs     int64
	SpecDriveTotal uint64
}

func (m *Metrics) recordTick(idleMs int64, events int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ticks++
	m.IdleMsTotal += idleMs
	m.LastIdleMs = idleMs
	m.EventsTotal += uint64(events)
}

func (m *Metrics) recordSpecDrive() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SpecDriveTotal++
}

// MetricsSnapshot is a copyable point-in-time read of Metrics.
type MetricsSnapshot struct {
	Ticks          uint64
	EventsTotal    uint64
	IdleMsTotal    int64
	LastIdleMs     int64
	SpecDriveTotal uint64
}

// Snapshot returns a copy of the current counters, safe for concurrent
// reads even while the poll loop is running.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Ticks:          m.Ticks,
		EventsTotal:    m.EventsTotal,
		IdleMsTotal:    m.IdleMsTotal,
		LastIdleMs:     m.LastIdleMs,
		SpecDriveTotal: m.SpecDriveTotal,
	}
}
