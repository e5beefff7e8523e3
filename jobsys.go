package jobsys

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/eapache/queue"
	"golang.org/x/time/rate"
)

// RenderProcessor is the processor that exclusively drains the Render
// queue. Run executes it on the calling goroutine.
const RenderProcessor = 0

// Scheduler owns the whole job system: workers, fiber pool and queues.
type Scheduler struct {
	opts    Options
	metrics MetricsPolicy

	started  atomic.Bool
	running  atomic.Bool
	stopping atomic.Bool

	queues  *guarded[jobQueues]
	free    *guarded[*queue.Queue]
	waiting *guarded[[]*fiber]

	pool    []*fiber
	workers []*worker

	// renderOnly keeps the render processor off the ordinary queues.
	// Cleared when it is the only worker.
	renderOnly bool

	ctx    context.Context
	cancel context.CancelFunc

	fiberWG sync.WaitGroup
	reap    chan struct{}
	done    chan struct{}

	exhaustLog *rate.Limiter
}

// New creates a scheduler. Nothing runs until Run is called.
func New(opts Options) *Scheduler {
	opts.FillDefaults()

	s := &Scheduler{
		opts:       opts,
		metrics:    opts.Metrics,
		queues:     newGuarded(newJobQueues()),
		free:       newGuarded(queue.New()),
		waiting:    newGuarded(make([]*fiber, 0, opts.FiberPoolSize)),
		renderOnly: opts.Workers > 1,
		reap:       make(chan struct{}),
		done:       make(chan struct{}),
		exhaustLog: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	s.ctx, s.cancel = context.WithCancel(opts.Ctx)

	s.pool = make([]*fiber, opts.FiberPoolSize)
	for i := range s.pool {
		f := newFiber(s, i, false)
		s.pool[i] = f
		s.addToFree(f)
	}

	s.workers = make([]*worker, opts.Workers)
	for i := range s.workers {
		s.workers[i] = newWorker(s, i)
	}
	return s
}

// Run starts the job system and blocks until it stops.
//
// The calling goroutine becomes the render processor's worker; the other
// workers get goroutines of their own. start is queued with Render
// priority before any worker runs. Run returns after every worker has
// joined and every pooled fiber has been released. Jobs still queued at
// that point are dropped. If Stop was called before Run, Run returns nil
// at once without running start.
func (s *Scheduler) Run(start Job) error {
	if start.Fn == nil {
		return ErrNilFunc
	}
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	logger := lg.FromContext(s.opts.Ctx)
	logger.Info("job system starting",
		lg.Int("workers", s.opts.Workers),
		lg.Int("fiber_pool_size", s.opts.FiberPoolSize),
		lg.Any("pin_workers", s.opts.PinWorkers),
	)

	s.running.Store(true)
	if s.stopping.Load() {
		s.running.Store(false)
		s.cancel()
		close(s.done)
		logger.Info("job system stopped before start")
		return nil
	}
	for _, f := range s.pool {
		s.fiberWG.Add(1)
		go f.run()
	}

	// Queued directly: a Stop racing with Run must not strand the
	// fibers started above.
	start.Priority = Render
	s.queues.with(func(q *jobQueues) {
		q.push(start)
	})
	s.metrics.IncQueued()

	for _, w := range s.workers[1:] {
		w.start()
	}
	render := s.workers[RenderProcessor]
	render.state.Store(int32(WorkerStarted))
	render.run()

	for _, w := range s.workers[1:] {
		w.stop()
	}
	close(s.reap)
	s.fiberWG.Wait()
	close(s.done)

	logger.Info("job system stopped",
		lg.Any("executed", executedOf(s.metrics)),
	)
	return nil
}

// Stop asks the job system to stop. It does not wait; jobs may call it.
// Every fiber observes the request at its next suspension point. A stop
// requested before Run is remembered.
func (s *Scheduler) Stop() {
	s.stopping.Store(true)
	if s.running.CompareAndSwap(true, false) {
		s.cancel()
	}
}

// Shutdown stops the job system and waits for Run to return or ctx to
// expire. It must not be called from a job. Called before Run, it waits
// for a later Run to return.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.Stop()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Running reports whether the job system accepts jobs.
func (s *Scheduler) Running() bool { return s.running.Load() }

// RunJobs queues jobs for execution.
//
// If counter is not nil it is incremented by len(jobs) before any of the
// jobs becomes visible to workers, and each job decrements it by one when
// it finishes. Either all jobs are queued or none is.
func (s *Scheduler) RunJobs(jobs []Job, counter *Counter) error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	for i := range jobs {
		if jobs[i].Fn == nil {
			return ErrNilFunc
		}
	}
	if len(jobs) == 0 {
		return nil
	}
	if counter != nil {
		counter.Add(int64(len(jobs)))
	}
	s.queues.with(func(q *jobQueues) {
		for _, job := range jobs {
			job.counter = counter
			q.push(job)
		}
	})
	for range jobs {
		s.metrics.IncQueued()
	}
	return nil
}

// WaitOnCounter blocks until counter equals target.
//
// Called from a job (ctx is the job's context, used on the job's own
// goroutine) the fiber is parked and its processor keeps running other
// work until the counter is satisfied. Called from any other goroutine it
// polls, backing off to short sleeps once the idle spin budget is spent.
// When the scheduler stops while a job is waiting, the job is unwound
// with runtime.Goexit and WaitOnCounter does not return.
func (s *Scheduler) WaitOnCounter(ctx context.Context, counter *Counter, target int64) error {
	if satisfied(counter, target) {
		return nil
	}
	f := fiberFromContext(ctx)
	if f == nil {
		return s.pollCounter(ctx, counter, target)
	}
	if f.s != s {
		return ErrForeignContext
	}

	f.data.waiting = true
	f.data.waitCounter = counter
	f.data.waitTarget = target
	s.pullNextJob(f, f, f.data.currentProcessor)

	if !s.running.Load() {
		s.exitToHome(f)
	}
	f.data.clearWait()
	s.returnPrev(f)
	return nil
}

func (s *Scheduler) pollCounter(ctx context.Context, counter *Counter, target int64) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pol := s.opts.Idle
	if pol.Spins <= 0 {
		pol.Spins = defaultPollSpins
	}
	idle := newIdler(pol)
	for !satisfied(counter, target) {
		if !s.running.Load() {
			return ErrNotRunning
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		idle.wait()
	}
	return nil
}

// CurrentProcessor returns the processor running the job that owns ctx,
// or -1 when ctx does not come from a job of this scheduler.
func (s *Scheduler) CurrentProcessor(ctx context.Context) int {
	f := fiberFromContext(ctx)
	if f == nil || f.s != s {
		return -1
	}
	return f.data.currentProcessor
}

// cpuFor maps a processor index to the CPU its worker is pinned to.
func (s *Scheduler) cpuFor(proc int) int {
	if proc < len(s.opts.CPUs) {
		return s.opts.CPUs[proc]
	}
	return proc % runtime.NumCPU()
}

// bindThread moves the OS thread of a pooled fiber to the CPU of the
// processor it is about to run on.
func (s *Scheduler) bindThread(f *fiber) {
	if !s.opts.PinWorkers {
		return
	}
	cpu := s.cpuFor(f.data.currentProcessor)
	if f.cpu == cpu {
		return
	}
	f.cpu = cpu
	if _, err := pinToCPU(cpu); err != nil {
		s.reportInternalError(err)
	}
}

// Stats is a point-in-time view of the scheduler.
type Stats struct {
	Workers  int
	PoolSize int

	// Fiber contexts by state. Worker home fibers count as Running
	// while their worker runs.
	Free    int
	Waiting int
	Running int
	Exited  int

	// Fibers actually held by the Free and Waiting lists. They match
	// Free and Waiting whenever no fiber is in transit between a list
	// and a lane.
	FreeList    int
	WaitingList int

	// Queued jobs indexed by Priority.
	Queued [numPriorities]int
}

// Stats returns a snapshot. Counts are gathered without stopping the
// workers, so fibers in transit may be attributed to either side.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Workers:  len(s.workers),
		PoolSize: len(s.pool),
	}
	count := func(f *fiber) {
		switch f.getState() {
		case fiberFree:
			st.Free++
		case fiberWaiting:
			st.Waiting++
		case fiberRunning:
			st.Running++
		case fiberExited:
			st.Exited++
		}
	}
	for _, f := range s.pool {
		count(f)
	}
	for _, w := range s.workers {
		count(w.home)
	}
	s.free.with(func(fl **queue.Queue) {
		st.FreeList = (*fl).Length()
	})
	s.waiting.with(func(w *[]*fiber) {
		st.WaitingList = len(*w)
	})
	s.queues.with(func(q *jobQueues) {
		st.Queued = q.lens()
	})
	return st
}

// WorkerStates returns the lifecycle state of every worker by processor.
func (s *Scheduler) WorkerStates() []WorkerState {
	out := make([]WorkerState, len(s.workers))
	for i, w := range s.workers {
		out[i] = w.getState()
	}
	return out
}
