// Package jobsys provides a fiber-based cooperative job scheduler:
// many short-lived jobs multiplexed over a fixed set of workers, with
// fork/join synchronization through atomic counters and the ability to
// pin jobs to a single processor.
//
// Architecture overview
//
// The job system is composed of four layers:
//
//   1. Queues
//      One FIFO per priority (High, Normal, Low) plus a Render queue,
//      all guarded by a single spin lock. Ordinary processors drain
//      High → Normal → Low; the render processor (processor 0) drains
//      only the Render queue.
//
//   2. Fibers
//      A fixed pool of execution contexts, each backed by a goroutine.
//      A fiber is Free (idle, in the free list), Running (holding a
//      processor lane) or Waiting (parked on a Counter in the waiting
//      list). Switching between fibers hands a lane from one goroutine
//      to another; nothing is ever preempted.
//
//   3. Scheduling
//      When a fiber finishes a job or waits on a counter, its processor
//      looks for the next thing to run: first a waiting fiber whose
//      counter is satisfied, then a queued job, run in place by the
//      current fiber when possible or by a free fiber otherwise.
//
//   4. Workers
//      One goroutine per processor, optionally locked to an OS thread
//      bound to a CPU. A worker's own goroutine is its home context: it
//      hands the lane to the first fiber and gets it back at shutdown.
//
// Fork/join
//
// A producer queues jobs against a Counter and waits for it to drop to
// zero:
//
//	var c jobsys.Counter
//	_ = s.RunJobs(jobs, &c)
//	_ = s.WaitOnCounter(ctx, &c, 0)
//
// Inside a job, WaitOnCounter parks the job's fiber and lets the same
// processor run other work until the counter reaches the target.
//
// Error handling
//
// Jobs return errors; errors and recovered panics are reported through
// Options.OnJobError and logged, and the job's counter is decremented as
// if it had succeeded. Scheduler failures (CPU pinning) are reported via
// Options.OnInternalError and never stop a worker.
//
// Shutdown
//
// Stop is observed cooperatively at every suspension point. Fibers hand
// their lanes back to the workers' home contexts, parked fibers are
// released, and Run returns. Jobs that never started are dropped.
package jobsys
