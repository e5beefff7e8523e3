package jobsys

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// spinBeforeYield is the number of failed CAS attempts after which a
// contended spinLock yields the processor once.
const spinBeforeYield = 64

// spinLock is a test-and-test-and-set lock.
//
// Critical sections guarded by it are O(1) list or queue operations and
// never span a job execution or a fiber switch.
type spinLock struct {
	state atomic.Uint32
}

func (l *spinLock) Lock() {
	for spins := 0; ; spins++ {
		if l.state.Load() == 0 && l.state.CompareAndSwap(0, 1) {
			return
		}
		if spins == spinBeforeYield {
			spins = 0
			runtime.Gosched()
		}
	}
}

func (l *spinLock) TryLock() bool {
	return l.state.Load() == 0 && l.state.CompareAndSwap(0, 1)
}

func (l *spinLock) Unlock() {
	l.state.Store(0)
}

// guarded couples a value with the lock protecting it.
//
// The value is only reachable through with, so the lock is released on
// every exit path of the critical section, panics included.
type guarded[T any] struct {
	mu    spinLock
	value T
	_     cpu.CacheLinePad
}

func newGuarded[T any](v T) *guarded[T] {
	return &guarded[T]{value: v}
}

func (g *guarded[T]) with(fn func(v *T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.value)
}
