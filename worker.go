package jobsys

import (
	"runtime"
	"sync/atomic"

	lg "github.com/Andrej220/go-utils/zlog"
)

// WorkerState is the lifecycle state of a worker.
type WorkerState int32

const (
	WorkerCreated WorkerState = iota
	WorkerStarted
	WorkerRunning
	WorkerStopped
)

func (ws WorkerState) String() string {
	switch ws {
	case WorkerCreated:
		return "created"
	case WorkerStarted:
		return "started"
	case WorkerRunning:
		return "running"
	case WorkerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// worker drives one processor lane. Its goroutine is the lane's home
// fiber: it schedules the first fiber and is resumed only at shutdown.
type worker struct {
	s     *Scheduler
	index int
	home  *fiber
	state atomic.Int32
	done  chan struct{}
}

func newWorker(s *Scheduler, index int) *worker {
	w := &worker{
		s:     s,
		index: index,
		home:  newFiber(s, -1-index, true),
		done:  make(chan struct{}),
	}
	w.home.data.currentProcessor = index
	w.home.setState(fiberRunning)
	return w
}

func (w *worker) getState() WorkerState { return WorkerState(w.state.Load()) }

// start launches the worker on a new goroutine.
func (w *worker) start() {
	w.state.Store(int32(WorkerStarted))
	go w.run()
}

// run executes the worker on the calling goroutine until the scheduler
// stops.
func (w *worker) run() {
	defer close(w.done)

	logger := lg.FromContext(w.s.opts.Ctx).With(lg.Int("processor", w.index))

	if w.s.opts.PinWorkers {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		cpu := w.s.cpuFor(w.index)
		restore, err := pinToCPU(cpu)
		if err != nil {
			w.s.reportInternalError(err)
			logger.Warn("cpu pinning failed", lg.Int("cpu", cpu), lg.Any("error", err))
		} else {
			defer restore()
			w.home.cpu = cpu
		}
	}

	w.state.Store(int32(WorkerRunning))
	logger.Info("worker started")

	w.s.pullNextJob(w.home, nil, w.index)

	w.home.setState(fiberExited)
	w.state.Store(int32(WorkerStopped))
	logger.Info("worker stopped")
}

// stop waits for the worker to finish. The scheduler must already be
// stopping.
func (w *worker) stop() {
	<-w.done
}
