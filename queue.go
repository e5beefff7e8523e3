package jobsys

import (
	"github.com/eapache/queue"
)

// jobQueues holds one FIFO per priority. Index Render is the render queue.
//
// It is not safe for concurrent use on its own; the Scheduler keeps it in
// a guarded container so that a single lock covers all four queues.
type jobQueues struct {
	q [numPriorities]*queue.Queue
}

func newJobQueues() jobQueues {
	var jq jobQueues
	for i := range jq.q {
		jq.q[i] = queue.New()
	}
	return jq
}

// push appends job to the queue selected by its priority.
// Priorities outside the known range are treated as Normal.
func (jq *jobQueues) push(job Job) {
	p := job.Priority
	if p >= numPriorities {
		p = Normal
	}
	jq.q[p].Add(job)
}

// popOrdinary dequeues the oldest job of the highest non-empty ordinary
// level, High first. The render queue is never inspected.
func (jq *jobQueues) popOrdinary() (Job, bool) {
	for p := High; p < Render; p++ {
		if jq.q[p].Length() > 0 {
			return jq.q[p].Remove().(Job), true
		}
	}
	return Job{}, false
}

// popRender dequeues the oldest render job.
func (jq *jobQueues) popRender() (Job, bool) {
	if jq.q[Render].Length() == 0 {
		return Job{}, false
	}
	return jq.q[Render].Remove().(Job), true
}

// lens reports the number of queued jobs per priority.
func (jq *jobQueues) lens() [numPriorities]int {
	var n [numPriorities]int
	for i := range jq.q {
		n[i] = jq.q[i].Length()
	}
	return n
}
