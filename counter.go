package jobsys

import (
	"sync/atomic"
)

// Counter is the fork/join primitive of the scheduler.
//
// A producer calls RunJobs with a counter; RunJobs adds the number of
// submitted jobs before any of them becomes visible to workers, and every
// finished job subtracts one. WaitOnCounter blocks the calling job until
// the counter reaches a target value (usually zero).
//
// The scheduler never allocates or frees counters and never inspects
// them other than comparing Get against a caller-supplied target.
// The zero value is ready to use.
type Counter struct {
	v atomic.Int64
}

// NewCounter returns a counter initialised to v.
func NewCounter(v int64) *Counter {
	c := &Counter{}
	c.v.Store(v)
	return c
}

// Get returns the current value.
func (c *Counter) Get() int64 { return c.v.Load() }

// Set overwrites the current value.
func (c *Counter) Set(v int64) { c.v.Store(v) }

// Add increments the counter by n and returns the new value.
func (c *Counter) Add(n int64) int64 { return c.v.Add(n) }

// Sub decrements the counter by n and returns the new value.
// Going below zero is a caller error and is not detected.
func (c *Counter) Sub(n int64) int64 { return c.v.Add(-n) }

// satisfied reports whether a fiber waiting for (c, target) may resume.
// A nil counter is always satisfied.
func satisfied(c *Counter, target int64) bool {
	return c == nil || c.Get() == target
}
