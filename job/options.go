package job

import "time"

// Request is the producer-supplied description of a mutation. The
// pipeline turns it into a Job by stamping an ID, priority, and
// lifecycle defaults.
type Request struct {
	// Action is the requested mutation (create, update, or delete).
	Action Action

	// OwnerID identifies the acting principal for create and update.
	OwnerID string

	// TargetID names the record being mutated. Required for update and
	// delete, absent for create.
	TargetID string

	// Payload is the record data. Required for create and update,
	// absent for delete.
	Payload []byte

	// Context is optional metadata. Delete requires an acting admin.
	Context *Context
}

// Options configures per-job behavior beyond the Request fields.
type Options struct {
	// Priority selects the lane the job is routed to.
	Priority Priority

	// MaxRetries is the number of retry attempts for transient store
	// failures before the job moves to the dead letter queue. Zero
	// means single-attempt semantics.
	MaxRetries int

	// Timeout bounds the store call for this job. Zero falls back to
	// the pipeline default.
	Timeout time.Duration
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Priority:   PriorityNormal,
		MaxRetries: 3,
		Timeout:    time.Minute,
	}
}

// Option is a functional option applied at enqueue time.
type Option func(*Options)

// WithPriority sets the job's priority tier.
func WithPriority(p Priority) Option {
	return func(o *Options) { o.Priority = p }
}

// WithMaxRetries sets the retry budget for transient store failures.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithTimeout bounds the record store call for this job.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}
