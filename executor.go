package jobsys

import (
	"fmt"
	"runtime"
)

// trampoline is the endless loop of a pooled fiber: hand the predecessor
// back to its pool, run the assigned job, signal its counter, pull the
// next job on the same lane. It ends only when the scheduler stops.
func (s *Scheduler) trampoline(f *fiber) {
	for {
		s.returnPrev(f)
		if !s.running.Load() {
			s.exitToHome(f)
		}

		if job := f.data.job; job.Fn != nil {
			s.execute(f, job)
			f.data.job = Job{}
			if job.counter != nil {
				job.counter.Sub(1)
			}
			s.metrics.IncExecuted()
		}

		s.pullNextJob(f, f, f.data.currentProcessor)
	}
}

// execute runs a single job on f. Job errors and panics are reported and
// never escape into the scheduling loop.
func (s *Scheduler) execute(f *fiber, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.reportJobError(fmt.Errorf("jobsys: job panicked: %v", r))
		}
	}()
	if err := job.Fn(f.ctx, job.Payload); err != nil {
		s.reportJobError(err)
	}
}

// exitToHome gives the lane of f back to its worker's home fiber and
// terminates the fiber goroutine. Deferred calls of an interrupted job
// still run.
func (s *Scheduler) exitToHome(f *fiber) {
	home := s.workers[f.data.currentProcessor].home
	f.setState(fiberExited)
	home.resume <- struct{}{}
	runtime.Goexit()
}
