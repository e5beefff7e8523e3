//go:build !linux

package jobsys

func pinToCPU(cpu int) (restore func(), err error) {
	return nil, ErrAffinityUnsupported
}
