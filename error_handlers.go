package jobsys

import (
	lg "github.com/Andrej220/go-utils/zlog"
)

// reportInternalError reports a scheduler failure unrelated to any job,
// such as a CPU pinning error. Processing continues.
func (s *Scheduler) reportInternalError(e error) {
	if s.opts.OnInternalError != nil {
		s.opts.OnInternalError(e)
	}
}

// reportJobError reports an error returned by a job or produced by panic
// recovery. The job's counter is still decremented.
func (s *Scheduler) reportJobError(err error) {
	lg.FromContext(s.opts.Ctx).Error("job failed", lg.Any("error", err))
	if s.opts.OnJobError != nil {
		s.opts.OnJobError(err)
	}
}
