package jobsys

import (
	"slices"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/eapache/queue"
)

// addToFree parks f in the Free list. Its job data is dropped.
func (s *Scheduler) addToFree(f *fiber) {
	f.data.reset(-1)
	s.free.with(func(fl **queue.Queue) {
		f.setState(fiberFree)
		(*fl).Add(f)
	})
}

// addToWaiting appends f to the Waiting list, keeping insertion order.
func (s *Scheduler) addToWaiting(f *fiber) {
	s.waiting.with(func(w *[]*fiber) {
		f.setState(fiberWaiting)
		*w = append(*w, f)
	})
}

// takeResumable removes and returns the first waiting fiber that may run
// on proc: its counter (if any) has reached the target and it is not
// fixed to another processor. The list is scanned in insertion order.
func (s *Scheduler) takeResumable(proc int) *fiber {
	var found *fiber
	s.waiting.with(func(w *[]*fiber) {
		for i, f := range *w {
			if f.data.fixedProcessor >= 0 && f.data.fixedProcessor != proc {
				continue
			}
			if f.data.waiting && !satisfied(f.data.waitCounter, f.data.waitTarget) {
				continue
			}
			*w = slices.Delete(*w, i, i+1)
			f.setState(fiberRunning)
			found = f
			return
		}
	})
	return found
}

// popJob dequeues the next job proc is allowed to run. Must be called
// without holding the queue lock.
func (s *Scheduler) popJob(proc int) (Job, bool) {
	var (
		job Job
		ok  bool
	)
	s.queues.with(func(q *jobQueues) {
		if proc == RenderProcessor {
			if job, ok = q.popRender(); ok || s.renderOnly {
				return
			}
		}
		job, ok = q.popOrdinary()
	})
	if ok {
		s.metrics.BatchDecQueued(1)
	}
	return job, ok
}

// assign binds job to f, which will run next on proc after prev.
func (s *Scheduler) assign(f *fiber, job Job, prev *fiber, proc int) {
	f.data.reset(proc)
	f.data.job = job
	f.data.prev = prev
	if job.Priority == Render {
		f.data.fixedProcessor = RenderProcessor
	}
	f.setState(fiberRunning)
}

// getNextJobFiber selects the fiber proc should run after vacating.
//
// Fibers released from the Waiting list come first. Otherwise a job is
// dequeued: vacating runs it in place when it is not about to wait,
// else a Free fiber is taken, but only if a job is actually available.
// A nil result means there is nothing to run.
func (s *Scheduler) getNextJobFiber(vacating *fiber, proc int) *fiber {
	if f := s.takeResumable(proc); f != nil {
		f.data.prev = vacating
		f.data.currentProcessor = proc
		f.data.clearWait()
		return f
	}

	if vacating != nil && !vacating.data.waiting {
		job, ok := s.popJob(proc)
		if !ok {
			return nil
		}
		s.assign(vacating, job, vacating, proc)
		return vacating
	}

	var (
		next      *fiber
		job       Job
		exhausted bool
	)
	s.free.with(func(fl **queue.Queue) {
		if (*fl).Length() == 0 {
			exhausted = true
			return
		}
		var ok bool
		if job, ok = s.popJob(proc); !ok {
			return
		}
		next = (*fl).Remove().(*fiber)
	})
	if next == nil {
		if exhausted && s.exhaustLog.Allow() {
			st := s.Stats()
			lg.FromContext(s.opts.Ctx).Warn("fiber pool exhausted",
				lg.Int("processor", proc),
				lg.Int("waiting", st.Waiting),
				lg.Int("running", st.Running),
				lg.Int("pool_size", st.PoolSize),
			)
		}
		return nil
	}
	s.assign(next, job, vacating, proc)
	return next
}

// pullNextJob drives lane proc until cur can continue.
//
// It returns without switching when vacating's wait is already satisfied
// or vacating was given a new job in place, returns after cur has been
// switched out and resumed again, and returns immediately once the
// scheduler stops.
func (s *Scheduler) pullNextJob(cur, vacating *fiber, proc int) {
	idle := newIdler(s.opts.Idle)
	for {
		if !s.running.Load() {
			return
		}
		if vacating != nil && vacating.data.waiting &&
			satisfied(vacating.data.waitCounter, vacating.data.waitTarget) {
			vacating.data.clearWait()
			return
		}

		next := s.getNextJobFiber(vacating, proc)
		if next == nil {
			idle.wait()
			continue
		}
		if next == cur {
			return
		}
		if fp := next.data.fixedProcessor; fp >= 0 && fp != proc {
			s.addToWaiting(next)
			continue
		}

		cur.switchTo(next)
		return
	}
}

// returnPrev hands the fiber f was switched in from back to the pool it
// belongs to: Waiting if it is blocked on a counter, Free otherwise.
func (s *Scheduler) returnPrev(f *fiber) {
	prev := f.data.prev
	f.data.prev = nil
	if prev == nil || prev == f {
		return
	}
	if prev.data.waiting {
		s.addToWaiting(prev)
		return
	}
	s.addToFree(prev)
}
