package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/scum-dog/identikit-server-sub001/backoff"
	"github.com/scum-dog/identikit-server-sub001/dlq"
	"github.com/scum-dog/identikit-server-sub001/ext"
	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
	mw "github.com/scum-dog/identikit-server-sub001/middleware"
	"github.com/scum-dog/identikit-server-sub001/observability"
	"github.com/scum-dog/identikit-server-sub001/queue"
	"github.com/scum-dog/identikit-server-sub001/record"
	"github.com/scum-dog/identikit-server-sub001/store/memory"
	"github.com/scum-dog/identikit-server-sub001/worker"
)

// Pipeline is the in-process asynchronous mutation subsystem: producers
// enqueue jobs into priority lanes, a fixed worker pool drains the
// lanes in strict priority order, and each job's mutation is applied
// against the record store.
//
// Create one with New and functional options, call Start to launch the
// workers, and Shutdown to stop. A Pipeline is not restartable after
// Shutdown.
type Pipeline struct {
	config Config
	logger *slog.Logger

	records record.Store
	journal job.Store
	dlqs    dlq.Store

	queue      *queue.Queue
	extensions *ext.Registry
	dlqService *dlq.Service
	pool       *worker.Pool

	bo        backoff.Strategy
	mws       []mw.Middleware
	queueOpts []queue.Option
	pendExts  []ext.Extension

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a Pipeline applying mutations against records.
func New(records record.Store, opts ...Option) (*Pipeline, error) {
	if records == nil {
		return nil, ErrNoRecordStore
	}

	p := &Pipeline{
		config:  DefaultConfig(),
		logger:  slog.Default(),
		records: records,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// Journal and DLQ default to a shared in-memory store.
	if p.journal == nil || p.dlqs == nil {
		mem := memory.New()
		if p.journal == nil {
			p.journal = mem
		}
		if p.dlqs == nil {
			p.dlqs = mem
		}
	}
	if p.bo == nil {
		p.bo = backoff.Default()
	}

	p.queue = queue.New(p.queueOpts...)
	p.extensions = ext.NewRegistry(p.logger)

	// Lifecycle metrics extension (custom provider or global).
	var obsExt *observability.MetricsExtension
	if p.meterProvider != nil {
		meter := p.meterProvider.Meter("github.com/scum-dog/identikit-server-sub001/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	p.extensions.Register(obsExt)
	for _, e := range p.pendExts {
		p.extensions.Register(e)
	}
	p.pendExts = nil

	p.dlqService = dlq.NewService(p.dlqs, p.journal, p.queue)

	// Execution tracing and metrics middleware (custom provider or global).
	var tracingMw mw.Middleware
	if p.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(p.tracerProvider.Tracer("github.com/scum-dog/identikit-server-sub001"))
	} else {
		tracingMw = mw.Tracing()
	}
	var metricsMw mw.Middleware
	if p.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(p.meterProvider.Meter("github.com/scum-dog/identikit-server-sub001"))
	} else {
		metricsMw = mw.Metrics()
	}

	// Default middleware stack: recover → tracing → metrics → logging → timeout.
	allMws := []mw.Middleware{
		mw.Recover(p.logger),
		tracingMw,
		metricsMw,
		mw.Logging(p.logger),
		mw.Timeout(p.logger),
	}
	allMws = append(allMws, p.mws...)

	processor := worker.NewProcessor(
		p.records, p.journal, p.extensions, p.dlqService, p.bo, p.queue,
		p.logger, allMws...,
	)

	p.pool = worker.NewPool(p.queue, processor, p.logger,
		worker.WithWorkers(p.config.Workers),
		worker.WithPollInterval(p.config.PollInterval),
		worker.WithAnomalyBackoff(p.config.AnomalyBackoff),
	)

	return p, nil
}

// Enqueue accepts a mutation request into its priority lane and returns
// the new job's ID immediately. Validation happens when a worker picks
// the job up, not here; a malformed request still enqueues and fails at
// processing time.
func (p *Pipeline) Enqueue(ctx context.Context, req job.Request, opts ...job.Option) (id.JobID, error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return id.JobID{}, ErrShutdown
	}
	p.mu.Unlock()

	jobOpts := job.DefaultOptions()
	for _, opt := range opts {
		opt(&jobOpts)
	}

	now := time.Now().UTC()
	j := &job.Job{
		ID:         id.NewJobID(),
		Action:     req.Action,
		OwnerID:    req.OwnerID,
		TargetID:   req.TargetID,
		Payload:    req.Payload,
		Context:    req.Context,
		Priority:   jobOpts.Priority,
		State:      job.StatePending,
		MaxRetries: jobOpts.MaxRetries,
		Timeout:    jobOpts.Timeout,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}

	// The journal is observational; a write failure never rejects the job.
	if err := p.journal.SaveJob(ctx, j); err != nil {
		p.logger.Warn("journal write failed at enqueue",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	p.queue.Enqueue(j)
	p.extensions.EmitJobEnqueued(ctx, j)

	p.logger.Debug("job enqueued",
		slog.String("job_id", j.ID.String()),
		slog.String("action", string(j.Action)),
		slog.String("priority", j.Priority.String()),
	)

	return j.ID, nil
}

// Start launches the worker pool. It returns immediately and is a
// no-op if the pipeline is already running.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrShutdown
	}
	p.started = true
	p.mu.Unlock()

	return p.pool.Start(ctx)
}

// Shutdown stops the pipeline: workers finish the job they currently
// own, jobs still waiting in the lanes are dropped, extensions are
// notified, and the record store is closed if it is closeable.
// Shutdown is idempotent; concurrent and repeat calls after the first
// are no-ops. If ctx carries no deadline, the configured
// ShutdownTimeout applies.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	started := p.started
	p.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && p.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.ShutdownTimeout)
		defer cancel()
	}

	var stopErr error
	if started {
		stopErr = p.pool.Stop(ctx)
	}

	p.extensions.EmitShutdown(ctx)

	if closer, ok := p.records.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error("record store close error",
				slog.String("error", err.Error()),
			)
			if stopErr == nil {
				stopErr = err
			}
		}
	}

	return stopErr
}

// Jobs returns the status journal for querying job outcomes.
func (p *Pipeline) Jobs() job.Store { return p.journal }

// DLQ returns the dead letter queue service.
func (p *Pipeline) DLQ() *dlq.Service { return p.dlqService }

// Extensions returns the extension registry.
func (p *Pipeline) Extensions() *ext.Registry { return p.extensions }

// Config returns a copy of the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.config }

// Logger returns the pipeline's logger.
func (p *Pipeline) Logger() *slog.Logger { return p.logger }

// QueueLen returns the number of jobs currently waiting in the lanes.
func (p *Pipeline) QueueLen() int { return p.queue.Len() }
