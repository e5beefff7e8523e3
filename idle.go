package jobsys

import (
	"runtime"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
)

// idler paces a processor that polls for work and finds none. It only
// yields unless the policy has a positive spin budget.
type idler struct {
	pol    IdlePolicy
	misses int
	next   func() time.Duration
}

func newIdler(pol IdlePolicy) idler {
	return idler{pol: pol}
}

func (i *idler) wait() {
	i.misses++
	if i.pol.Spins <= 0 || i.misses <= i.pol.Spins {
		runtime.Gosched()
		return
	}
	if i.next == nil {
		bo := boff.New(i.pol.Initial, i.pol.Max, time.Now().UnixNano())
		i.next = bo.Next
	}
	delay := i.next()
	if delay > i.pol.Max {
		delay = i.pol.Max
	}
	time.Sleep(delay)
}
