package jobsys

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/eapache/queue"
)

// newLaneScheduler returns a scheduler whose lanes are driven by the test
// itself: it is marked running, but no worker or fiber goroutine is started.
func newLaneScheduler(workers, poolSize int) (*Scheduler, *AtomicMetrics) {
	m := &AtomicMetrics{}
	s := New(Options{Workers: workers, FiberPoolSize: poolSize, Metrics: m})
	s.running.Store(true)
	return s, m
}

func waitingFibers(s *Scheduler) []*fiber {
	var out []*fiber
	s.waiting.with(func(w *[]*fiber) {
		out = append(out, *w...)
	})
	return out
}

func TestStatsReportsListLengths(t *testing.T) {
	s, _ := newLaneScheduler(2, 8)

	var lost *fiber
	s.free.with(func(fl **queue.Queue) {
		lost = (*fl).Remove().(*fiber)
	})
	if lost.getState() != fiberFree {
		t.Fatalf("state = %d; want free", lost.getState())
	}

	st := s.Stats()
	if st.Free != 8 || st.FreeList != 7 {
		t.Fatalf("free=%d free list=%d; want 8 and 7", st.Free, st.FreeList)
	}

	s.addToWaiting(lost)
	st = s.Stats()
	if st.Waiting != 1 || st.WaitingList != 1 || st.FreeList != 7 {
		t.Fatalf("waiting=%d waiting list=%d free list=%d", st.Waiting, st.WaitingList, st.FreeList)
	}
}

func TestFixedProcessorMismatchGoesBackToWaiting(t *testing.T) {
	s, m := newLaneScheduler(2, 4)

	// A render job that reached an ordinary queue: processor 1 can pop it,
	// but the fiber it lands on is fixed to the render processor.
	s.queues.with(func(q *jobQueues) {
		q.q[Normal].Add(Job{
			Fn:       func(context.Context, any) error { return nil },
			Priority: Render,
		})
	})

	home := s.workers[1].home
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.pullNextJob(home, nil, 1)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(waitingFibers(s)) == 0 {
		if time.Now().After(deadline) {
			s.running.Store(false)
			<-done
			t.Fatal("pinned fiber never reached the waiting list")
		}
		runtime.Gosched()
	}
	s.running.Store(false)
	<-done

	waiting := waitingFibers(s)
	if len(waiting) != 1 {
		t.Fatalf("waiting list holds %d fibers; want 1", len(waiting))
	}
	pinned := waiting[0]
	if pinned.data.fixedProcessor != RenderProcessor {
		t.Fatalf("fixed processor = %d; want %d", pinned.data.fixedProcessor, RenderProcessor)
	}
	if pinned.getState() != fiberWaiting {
		t.Fatalf("state = %d; want waiting", pinned.getState())
	}
	if n := m.Switches(); n != 0 || len(pinned.resume) != 0 {
		t.Fatalf("processor 1 switched into the pinned fiber (switches=%d)", n)
	}

	// Processor 1 keeps skipping it, processor 0 resumes it.
	s.running.Store(true)
	if f := s.getNextJobFiber(nil, 1); f != nil {
		t.Fatalf("processor 1 got fiber %d", f.id)
	}
	got := s.getNextJobFiber(nil, RenderProcessor)
	if got != pinned {
		t.Fatal("render processor did not resume the pinned fiber")
	}
	if got.data.currentProcessor != RenderProcessor || got.getState() != fiberRunning {
		t.Fatalf("resumed on %d in state %d", got.data.currentProcessor, got.getState())
	}
	if got.data.job.Priority != Render || got.data.job.Fn == nil {
		t.Fatal("pinned fiber lost its job")
	}
	if n := len(waitingFibers(s)); n != 0 {
		t.Fatalf("waiting list holds %d fibers after resume", n)
	}
}
