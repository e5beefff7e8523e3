package jobsys

import (
	"context"
	"errors"
)

var (
	// ErrNilFunc is returned when a submitted Job has a nil Fn.
	ErrNilFunc = errors.New("jobsys: job func is nil")

	// ErrNotRunning is returned by RunJobs when the scheduler is not running.
	ErrNotRunning = errors.New("jobsys: scheduler is not running")

	// ErrAlreadyRunning is returned by Run on a scheduler that was started before.
	ErrAlreadyRunning = errors.New("jobsys: scheduler already started")

	// ErrForeignContext is returned when a job context produced by one
	// Scheduler is passed to another.
	ErrForeignContext = errors.New("jobsys: context belongs to another scheduler")

	// ErrAffinityUnsupported is reported when PinWorkers is set on a
	// platform without thread affinity support.
	ErrAffinityUnsupported = errors.New("jobsys: cpu affinity not supported")
)

// Priority selects the queue a job is routed to.
//
// High, Normal and Low are ordinary levels drained in that order by every
// processor except the render processor. Render is not a level: jobs with
// this priority go to a separate queue that only the render processor
// drains, and they are pinned to it for their whole lifetime.
type Priority uint8

const (
	High Priority = iota
	Normal
	Low
	Render

	numPriorities = 4
)

func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// JobFunc is the entry point of a job.
//
// ctx identifies the fiber running the job; pass it to WaitOnCounter and
// CurrentProcessor. It is canceled when the scheduler stops.
//
// Only the job's own goroutine may pass ctx, or a context derived from
// it, to WaitOnCounter: the call parks the goroutine that holds the
// processor. Goroutines spawned by the job must wait with a context that
// does not come from ctx.
type JobFunc func(ctx context.Context, payload any) error

// Job describes a single unit of work. A Job is copied into the queue by
// RunJobs and is immutable from then on.
type Job struct {
	Fn       JobFunc
	Payload  any
	Priority Priority

	counter *Counter
}

// NewJob wraps a typed entry point into a Job.
func NewJob[T any](fn func(ctx context.Context, payload T) error, payload T, prio Priority) Job {
	return Job{
		Fn: func(ctx context.Context, p any) error {
			v, _ := p.(T)
			return fn(ctx, v)
		},
		Payload:  payload,
		Priority: prio,
	}
}
