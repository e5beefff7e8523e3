package jobsys_test

import (
	"sync"
	"testing"

	js "github.com/azargarov/jobsys"
)

func TestCounterOps(t *testing.T) {
	var c js.Counter
	if c.Get() != 0 {
		t.Fatalf("zero counter = %d", c.Get())
	}
	if got := c.Add(5); got != 5 {
		t.Fatalf("Add returned %d; want 5", got)
	}
	if got := c.Sub(2); got != 3 {
		t.Fatalf("Sub returned %d; want 3", got)
	}
	c.Set(42)
	if c.Get() != 42 {
		t.Fatalf("Get after Set = %d; want 42", c.Get())
	}
	if got := js.NewCounter(-1).Get(); got != -1 {
		t.Fatalf("NewCounter(-1).Get() = %d", got)
	}
}

func TestCounterConcurrent(t *testing.T) {
	const (
		goroutines = 8
		iterations = 10_000
	)
	c := js.NewCounter(goroutines * iterations)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range iterations {
				c.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			for range iterations {
				c.Sub(2)
			}
		}()
	}
	wg.Wait()

	if got := c.Get(); got != 0 {
		t.Fatalf("counter = %d; want 0", got)
	}
}
