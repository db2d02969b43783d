package pipeline

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/scum-dog/identikit-server-sub001/backoff"
	"github.com/scum-dog/identikit-server-sub001/dlq"
	"github.com/scum-dog/identikit-server-sub001/ext"
	"github.com/scum-dog/identikit-server-sub001/job"
	mw "github.com/scum-dog/identikit-server-sub001/middleware"
	"github.com/scum-dog/identikit-server-sub001/queue"
)

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the number of concurrent worker goroutines.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		p.config.Workers = n
		return nil
	}
}

// WithPollInterval sets how long an idle worker sleeps between lane checks.
func WithPollInterval(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.config.PollInterval = d
		return nil
	}
}

// WithAnomalyBackoff sets how long a worker pauses after recovering
// from an unexpected panic.
func WithAnomalyBackoff(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.config.AnomalyBackoff = d
		return nil
	}
}

// WithShutdownTimeout bounds Shutdown when its context has no deadline.
func WithShutdownTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.config.ShutdownTimeout = d
		return nil
	}
}

// WithLogger sets the structured logger for the pipeline.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) error {
		p.logger = l
		return nil
	}
}

// WithJournal sets the status journal backend. Defaults to an
// in-memory store.
func WithJournal(s job.Store) Option {
	return func(p *Pipeline) error {
		p.journal = s
		return nil
	}
}

// WithDLQStore sets the dead letter queue backend. Defaults to an
// in-memory store.
func WithDLQStore(s dlq.Store) Option {
	return func(p *Pipeline) error {
		p.dlqs = s
		return nil
	}
}

// WithBackoff sets the retry backoff strategy.
// If not set, backoff.Default() (exponential with jitter) is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(p *Pipeline) error {
		p.bo = b
		return nil
	}
}

// WithMiddleware appends middleware to the execution chain, after the
// built-in stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(p *Pipeline) error {
		p.mws = append(p.mws, m)
		return nil
	}
}

// WithExtension registers a lifecycle extension.
func WithExtension(e ext.Extension) Option {
	return func(p *Pipeline) error {
		p.pendExts = append(p.pendExts, e)
		return nil
	}
}

// WithQueueOptions passes options through to the priority lane queue
// (rate limiting, aging promotion).
func WithQueueOptions(opts ...queue.Option) Option {
	return func(p *Pipeline) error {
		p.queueOpts = append(p.queueOpts, opts...)
		return nil
	}
}

// WithTracerProvider sets a custom OTel TracerProvider. When set, the
// tracing middleware uses this provider instead of the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) error {
		p.tracerProvider = tp
		return nil
	}
}

// WithMeterProvider sets a custom OTel MeterProvider. When set, both
// the metrics middleware and the observability extension use this
// provider instead of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(p *Pipeline) error {
		p.meterProvider = mp
		return nil
	}
}
