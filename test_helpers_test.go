package jobsys_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	js "github.com/azargarov/jobsys"
)

const runTimeout = 20 * time.Second

func newTestOptions(workers int) js.Options {
	return js.Options{
		Workers:       workers,
		FiberPoolSize: 32,
		Idle: js.IdlePolicy{
			Spins:   64,
			Initial: 10 * time.Microsecond,
			Max:     100 * time.Microsecond,
		},
	}
}

func newTestScheduler(t *testing.T, workers int) (*js.Scheduler, *js.AtomicMetrics) {
	t.Helper()

	m := &js.AtomicMetrics{}
	opts := newTestOptions(workers)
	opts.Metrics = m
	return js.New(opts), m
}

// runSystem runs s with start as the start job and waits for Run to
// return. start must eventually call s.Stop.
func runSystem(t *testing.T, s *js.Scheduler, start js.JobFunc) {
	t.Helper()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(js.Job{Fn: start})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(runTimeout):
		t.Fatal("job system did not stop in time")
	}
}

// startSystem runs s in the background with a no-op start job and
// registers a bounded shutdown as test cleanup.
func startSystem(t *testing.T, s *js.Scheduler) {
	t.Helper()

	go func() {
		_ = s.Run(js.Job{Fn: func(context.Context, any) error { return nil }})
	}()
	waitUntil(t, time.Second, s.Running)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	})
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
	}
	t.Fatal("condition not satisfied before timeout")
}
