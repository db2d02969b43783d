package queue_test

import (
	"sync"
	"testing"
	"time"

	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
	"github.com/scum-dog/identikit-server-sub001/queue"
)

func newJob(p job.Priority) *job.Job {
	return &job.Job{
		ID:       id.NewJobID(),
		Action:   job.ActionCreate,
		OwnerID:  "user-1",
		Payload:  []byte(`{}`),
		Priority: p,
		State:    job.StatePending,
	}
}

func TestLaneFor(t *testing.T) {
	tests := []struct {
		p    job.Priority
		want queue.Lane
	}{
		{job.PriorityLow, queue.LaneLow},
		{job.PriorityNormal, queue.LaneNormal},
		{job.PriorityHigh, queue.LaneHigh},
		{job.PriorityCritical, queue.LaneHigh},
	}
	for _, tt := range tests {
		if got := queue.LaneFor(tt.p); got != tt.want {
			t.Errorf("LaneFor(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestStrictPriorityDraining(t *testing.T) {
	q := queue.New()

	a := newJob(job.PriorityLow)
	b := newJob(job.PriorityNormal)
	c := newJob(job.PriorityHigh)

	// Enqueue in reverse-priority order; dequeue must still drain
	// high before normal before low.
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	want := []*job.Job{c, b, a}
	for i, w := range want {
		got, ok := q.Dequeue()
		if !ok {
			t.Fatalf("dequeue %d: queue unexpectedly empty", i)
		}
		if got.ID.String() != w.ID.String() {
			t.Errorf("dequeue %d = %s (prio %v), want %s (prio %v)",
				i, got.ID, got.Priority, w.ID, w.Priority)
		}
	}

	if _, ok := q.Dequeue(); ok {
		t.Error("expected empty queue after draining")
	}
}

func TestFIFOWithinLane(t *testing.T) {
	q := queue.New()

	x := newJob(job.PriorityNormal)
	y := newJob(job.PriorityNormal)
	q.Enqueue(x)
	q.Enqueue(y)

	first, _ := q.Dequeue()
	second, _ := q.Dequeue()
	if first.ID.String() != x.ID.String() || second.ID.String() != y.ID.String() {
		t.Errorf("lane is not FIFO: got %s then %s, want %s then %s",
			first.ID, second.ID, x.ID, y.ID)
	}
}

func TestCriticalSharesHighLane(t *testing.T) {
	q := queue.New()

	h := newJob(job.PriorityHigh)
	crit := newJob(job.PriorityCritical)
	q.Enqueue(h)
	q.Enqueue(crit)

	// CRITICAL does not jump ahead of an earlier HIGH job: same lane,
	// FIFO within it.
	first, _ := q.Dequeue()
	if first.ID.String() != h.ID.String() {
		t.Errorf("expected earlier high job first, got %s", first.ID)
	}
	if q.LaneLen(queue.LaneHigh) != 1 {
		t.Errorf("critical job not in high lane")
	}
}

func TestConcurrentEnqueueLosesNothing(t *testing.T) {
	q := queue.New()

	const producers = 8
	const perProducer = 50

	var wg sync.WaitGroup
	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				q.Enqueue(newJob(job.Priority(i % 4)))
			}
		}()
	}
	wg.Wait()

	if got := q.Len(); got != producers*perProducer {
		t.Fatalf("Len() = %d, want %d", got, producers*perProducer)
	}

	seen := make(map[string]struct{})
	for {
		j, ok := q.Dequeue()
		if !ok {
			break
		}
		if _, dup := seen[j.ID.String()]; dup {
			t.Fatalf("job %s dequeued twice", j.ID)
		}
		seen[j.ID.String()] = struct{}{}
	}
	if len(seen) != producers*perProducer {
		t.Fatalf("drained %d jobs, want %d", len(seen), producers*perProducer)
	}
}

func TestConcurrentConsumersExactlyOnce(t *testing.T) {
	q := queue.New()

	const total = 200
	for range total {
		q.Enqueue(newJob(job.PriorityNormal))
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				j, ok := q.Dequeue()
				if !ok {
					return
				}
				mu.Lock()
				seen[j.ID.String()]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("consumed %d distinct jobs, want %d", len(seen), total)
	}
	for idStr, n := range seen {
		if n != 1 {
			t.Errorf("job %s consumed %d times", idStr, n)
		}
	}
}

func TestRateLimit(t *testing.T) {
	// 1 job/sec with burst 1: the second immediate dequeue must be
	// deferred even though a job is pending.
	q := queue.New(queue.WithRateLimit(1, 1))
	q.Enqueue(newJob(job.PriorityNormal))
	q.Enqueue(newJob(job.PriorityNormal))

	if _, ok := q.Dequeue(); !ok {
		t.Fatal("first dequeue should pass the limiter")
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("second immediate dequeue should be rate limited")
	}
	if got := q.Len(); got != 1 {
		t.Errorf("Len() = %d after limited dequeue, want 1", got)
	}
}

func TestAgingPromotesWaitingJob(t *testing.T) {
	q := queue.New(queue.WithAging(20 * time.Millisecond))

	low := newJob(job.PriorityLow)
	norm := newJob(job.PriorityNormal)
	q.Enqueue(low)
	q.Enqueue(norm)

	time.Sleep(30 * time.Millisecond)

	// Both jobs have aged past the threshold by the time a drain
	// happens, so the dequeue promotes norm into the high lane and low
	// into the normal lane before popping.
	first, ok := q.Dequeue()
	if !ok {
		t.Fatal("queue unexpectedly empty")
	}
	if first.ID.String() != norm.ID.String() {
		t.Errorf("first dequeue = %s, want the promoted normal job %s", first.ID, norm.ID)
	}

	if got := q.LaneLen(queue.LaneLow); got != 0 {
		t.Errorf("low lane still holds %d jobs, want 0 after promotion", got)
	}
	if got := q.LaneLen(queue.LaneNormal); got != 1 {
		t.Errorf("normal lane holds %d jobs, want the promoted low job", got)
	}

	second, _ := q.Dequeue()
	if second.ID.String() != low.ID.String() {
		t.Errorf("second dequeue = %s, want promoted low job %s", second.ID, low.ID)
	}
}

func TestAgingDisabledByDefault(t *testing.T) {
	q := queue.New()

	low := newJob(job.PriorityLow)
	q.Enqueue(low)
	time.Sleep(10 * time.Millisecond)

	if got := q.LaneLen(queue.LaneLow); got != 1 {
		t.Fatalf("low lane = %d, want 1", got)
	}
	got, _ := q.Dequeue()
	if got.ID.String() != low.ID.String() {
		t.Errorf("dequeue = %s, want %s", got.ID, low.ID)
	}
}
