package jobsys

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// MetricsPolicy defines hooks used by the scheduler to report queueing,
// execution and context-switch activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking
type MetricsPolicy interface {

	// IncExecuted increments the executed jobs counter.
	IncExecuted()

	// IncQueued increments the queued jobs counter.
	IncQueued()

	// BatchDecQueued decrements the queued counter by n.
	BatchDecQueued(n int64)

	// IncSwitches counts a fiber context switch.
	IncSwitches()
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	executed atomic.Uint64
	_        cpu.CacheLinePad

	queued atomic.Int64
	_      cpu.CacheLinePad

	switches atomic.Uint64
}

// Executed returns the total number of executed jobs.
func (m *AtomicMetrics) Executed() uint64 {
	return m.executed.Load()
}

// Queued returns the current number of queued jobs.
func (m *AtomicMetrics) Queued() int64 {
	return m.queued.Load()
}

// Switches returns the total number of fiber context switches.
func (m *AtomicMetrics) Switches() uint64 {
	return m.switches.Load()
}

func (m *AtomicMetrics) IncExecuted() {
	m.executed.Add(1)
}

func (m *AtomicMetrics) IncQueued() {
	m.queued.Add(1)
}

func (m *AtomicMetrics) BatchDecQueued(n int64) {
	m.queued.Add(-n)
}

func (m *AtomicMetrics) IncSwitches() {
	m.switches.Add(1)
}

// executedOf reads the executed counter of policies that keep one.
func executedOf(m MetricsPolicy) uint64 {
	if e, ok := m.(interface{ Executed() uint64 }); ok {
		return e.Executed()
	}
	return 0
}

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncExecuted()           {}
func (m *NoopMetrics) IncQueued()             {}
func (m *NoopMetrics) BatchDecQueued(n int64) {}
func (m *NoopMetrics) IncSwitches()           {}
