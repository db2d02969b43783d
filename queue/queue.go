// Package queue implements the pending-job surface of the pipeline:
// three FIFO lanes partitioned by priority tier, drained under strict
// priority. It is a multi-producer multi-consumer structure; every
// operation is mutually exclusive under one lock.
package queue

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/scum-dog/identikit-server-sub001/job"
)

// Lane identifies one of the three FIFO sequences holding pending jobs.
type Lane int

const (
	// LaneHigh holds HIGH and CRITICAL priority jobs.
	LaneHigh Lane = iota
	// LaneNormal holds NORMAL priority jobs.
	LaneNormal
	// LaneLow holds LOW priority jobs.
	LaneLow

	laneCount
)

// String returns the lane name.
func (l Lane) String() string {
	switch l {
	case LaneHigh:
		return "high"
	case LaneNormal:
		return "normal"
	case LaneLow:
		return "low"
	default:
		return "unknown"
	}
}

// LaneFor maps a priority tier onto its lane. CRITICAL and HIGH share
// the high lane; there is no distinction beyond "high".
func LaneFor(p job.Priority) Lane {
	switch {
	case p >= job.PriorityHigh:
		return LaneHigh
	case p == job.PriorityNormal:
		return LaneNormal
	default:
		return LaneLow
	}
}

// entry pairs a job with the time it entered its current lane, so the
// optional aging policy can tell how long it has been waiting.
type entry struct {
	j     *job.Job
	since time.Time
}

// Queue is the enqueue/dequeue API over the lanes.
//
// Draining is strict priority with no fairness correction: a continuous
// stream of high jobs starves the other lanes. That is the contract —
// urgency beats fairness here. WithAging opts in to one-step promotion
// for callers that need starvation protection.
type Queue struct {
	mu    sync.Mutex
	lanes [laneCount][]entry

	// limiter, when set, caps the sustained dequeue rate.
	limiter *rate.Limiter

	// aging, when non-zero, promotes a job one lane up after it has
	// waited this long in its current lane.
	aging time.Duration

	now func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithRateLimit caps the sustained dequeue rate at perSecond jobs with
// the given burst. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(q *Queue) {
		if perSecond <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		q.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithAging promotes a job one lane up after it has waited d in its
// current lane. Zero disables aging (the default).
func WithAging(d time.Duration) Option {
	return func(q *Queue) { q.aging = d }
}

// New creates an empty Queue.
func New(opts ...Option) *Queue {
	q := &Queue{now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue routes the job to its lane and appends it at the tail.
// Safe for concurrent use by many producers; entries are never lost or
// duplicated. It never blocks beyond the lane append.
func (q *Queue) Enqueue(j *job.Job) {
	lane := LaneFor(j.Priority)

	q.mu.Lock()
	q.lanes[lane] = append(q.lanes[lane], entry{j: j, since: q.now()})
	q.mu.Unlock()
}

// Dequeue pops the head of the highest non-empty lane. It reports
// false when every lane is empty or the rate limiter defers the pop.
// Each job is returned exactly once.
func (q *Queue) Dequeue() (*job.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limiter != nil && !q.limiter.Allow() {
		return nil, false
	}

	if q.aging > 0 {
		q.promoteAged()
	}

	for lane := LaneHigh; lane < laneCount; lane++ {
		if len(q.lanes[lane]) == 0 {
			continue
		}
		e := q.lanes[lane][0]
		q.lanes[lane][0] = entry{} // release the reference
		q.lanes[lane] = q.lanes[lane][1:]
		if len(q.lanes[lane]) == 0 {
			q.lanes[lane] = nil // let the drained backing array go
		}
		return e.j, true
	}

	return nil, false
}

// promoteAged moves jobs that have waited past the aging threshold one
// lane up, appending at the destination tail. Promotion resets the
// job's wait clock. Caller must hold q.mu.
func (q *Queue) promoteAged() {
	cutoff := q.now().Add(-q.aging)

	for lane := LaneNormal; lane < laneCount; lane++ {
		var keep []entry
		for _, e := range q.lanes[lane] {
			if e.since.Before(cutoff) || e.since.Equal(cutoff) {
				q.lanes[lane-1] = append(q.lanes[lane-1], entry{j: e.j, since: q.now()})
				continue
			}
			keep = append(keep, e)
		}
		q.lanes[lane] = keep
	}
}

// Len returns the total number of pending jobs across all lanes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for lane := LaneHigh; lane < laneCount; lane++ {
		n += len(q.lanes[lane])
	}
	return n
}

// LaneLen returns the number of pending jobs in one lane.
func (q *Queue) LaneLen(lane Lane) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if lane < LaneHigh || lane >= laneCount {
		return 0
	}
	return len(q.lanes[lane])
}
