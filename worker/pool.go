package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
)

// Source supplies jobs to the pool. Satisfied by queue.Queue.
type Source interface {
	// Dequeue pops the next job by lane priority, or reports false
	// when every lane is empty.
	Dequeue() (*job.Job, bool)
	// Len returns the total number of queued jobs across lanes.
	Len() int
}

// Pool manages a fixed set of concurrent worker goroutines that drain
// the priority lanes and run each job through the Processor.
type Pool struct {
	source         Source
	processor      *Processor
	workers        int
	pollInterval   time.Duration
	anomalyBackoff time.Duration
	workerID       id.WorkerID
	logger         *slog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of concurrent worker goroutines.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) { p.workers = n }
}

// WithPollInterval sets how long an idle worker sleeps before checking
// the lanes again.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.pollInterval = d }
}

// WithAnomalyBackoff sets how long a worker pauses after recovering
// from an unexpected panic in its loop.
func WithAnomalyBackoff(d time.Duration) PoolOption {
	return func(p *Pool) { p.anomalyBackoff = d }
}

// NewPool creates a worker pool draining source through processor.
func NewPool(source Source, processor *Processor, logger *slog.Logger, opts ...PoolOption) *Pool {
	p := &Pool{
		source:         source,
		processor:      processor,
		workers:        5,
		pollInterval:   100 * time.Millisecond,
		anomalyBackoff: time.Second,
		workerID:       id.NewWorkerID(),
		logger:         logger,
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Start launches the worker goroutines. It returns immediately and is
// a no-op if the pool is already running.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	p.logger.Info("worker pool starting",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("workers", p.workers),
	)

	for range p.workers {
		p.wg.Add(1)
		go p.drainLoop()
	}

	return nil
}

// Stop signals all workers to finish their current job and exit, then
// waits for them. Jobs still queued in the lanes are dropped; the drop
// count is logged. Stop is idempotent. If the context has a deadline
// and workers do not finish in time, Stop returns the context error
// without waiting further.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("worker_id", p.workerID.String()))

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out")
		return ctx.Err()
	}

	if dropped := p.source.Len(); dropped > 0 {
		p.logger.Warn("undrained jobs dropped at shutdown",
			slog.Int("count", dropped),
		)
	}

	p.logger.Info("worker pool stopped")
	return nil
}

// drainLoop is run by each worker goroutine. A panic that escapes the
// processor (whose Recover middleware covers only the handler chain) is
// treated as an anomaly: the worker logs it, backs off, and resumes.
func (p *Pool) drainLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		if !p.runOne() {
			p.sleep(p.pollInterval)
		}
	}
}

// runOne takes and processes a single job. It reports false when the
// lanes were empty or an anomaly occurred, signalling the caller to
// back off before polling again.
func (p *Pool) runOne() (worked bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker recovered from anomaly",
				slog.String("worker_id", p.workerID.String()),
				slog.Any("panic", r),
			)
			p.sleep(p.anomalyBackoff)
			worked = false
		}
	}()

	j, ok := p.source.Dequeue()
	if !ok {
		return false
	}

	if err := p.processor.Process(context.Background(), j); err != nil {
		p.logger.Debug("job processing failed",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	return true
}

func (p *Pool) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-p.stopCh:
	}
}
