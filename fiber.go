package jobsys

import (
	"context"
	"runtime"
	"sync/atomic"
)

type fiberState int32

const (
	fiberFree fiberState = iota
	fiberRunning
	fiberWaiting
	fiberExited
)

// fiberData is the scheduling state of a fiber.
//
// While a fiber sits in the Free or Waiting list its data belongs to the
// list (it is read and written under the list lock); while it is Running
// only the goroutine holding its lane touches it.
type fiberData struct {
	job Job

	// prev is the fiber that was running on this lane before the switch
	// into this one. The resumed fiber hands it back to a pool.
	prev *fiber

	waiting     bool
	waitCounter *Counter
	waitTarget  int64

	currentProcessor int
	fixedProcessor   int
}

func (d *fiberData) reset(proc int) {
	*d = fiberData{currentProcessor: proc, fixedProcessor: -1}
}

func (d *fiberData) clearWait() {
	d.waiting = false
	d.waitCounter = nil
	d.waitTarget = 0
}

// fiber is a cooperatively scheduled execution context.
//
// Each fiber owns one goroutine. Exactly one goroutine per worker lane
// holds the lane at any time; switchTo passes it on through the target's
// resume channel and parks the caller. The channel has room for a single
// token, so a resume sent before the target has actually parked is not
// lost and never blocks the sender.
type fiber struct {
	id     int
	s      *Scheduler
	home   bool
	resume chan struct{}
	ctx    context.Context
	state  atomic.Int32

	// cpu is the CPU the fiber's OS thread is bound to, -1 if unbound.
	cpu int

	data fiberData
}

type fiberKey struct{}

func newFiber(s *Scheduler, id int, home bool) *fiber {
	f := &fiber{
		id:     id,
		s:      s,
		home:   home,
		resume: make(chan struct{}, 1),
		cpu:    -1,
	}
	f.ctx = context.WithValue(s.ctx, fiberKey{}, f)
	f.data.reset(-1)
	return f
}

func fiberFromContext(ctx context.Context) *fiber {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(fiberKey{}).(*fiber)
	return f
}

func (f *fiber) setState(st fiberState) { f.state.Store(int32(st)) }

func (f *fiber) getState() fiberState { return fiberState(f.state.Load()) }

// switchTo hands the lane to next and blocks until f is resumed.
// f must not touch its own data between the send and the wake up.
func (f *fiber) switchTo(next *fiber) {
	f.s.metrics.IncSwitches()
	next.resume <- struct{}{}
	f.park()
}

// park blocks until the fiber is resumed. A pooled fiber released by the
// reaper at the end of Run terminates its goroutine instead of returning.
func (f *fiber) park() {
	if f.home {
		<-f.resume
		return
	}
	select {
	case <-f.resume:
	case <-f.s.reap:
		runtime.Goexit()
	}
	f.s.bindThread(f)
}

// run is the body of a pooled fiber goroutine.
func (f *fiber) run() {
	defer f.s.fiberWG.Done()
	defer f.setState(fiberExited)

	if f.s.opts.PinWorkers {
		// The thread is discarded with the goroutine, affinity included.
		runtime.LockOSThread()
	}
	f.park()
	f.s.trampoline(f)
}
