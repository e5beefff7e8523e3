//go:build linux

package jobsys

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pinToCPU binds the calling OS thread to cpu. The caller must hold the
// thread with runtime.LockOSThread. restore puts the previous mask back.
func pinToCPU(cpu int) (restore func(), err error) {
	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		return nil, fmt.Errorf("jobsys: sched_getaffinity: %w", err)
	}
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return nil, fmt.Errorf("jobsys: pin to cpu %d: %w", cpu, err)
	}
	return func() { _ = unix.SchedSetaffinity(0, &prev) }, nil
}
