// Package job defines the job model for the asynchronous mutation
// pipeline: the actions a job can request, its priority tier, its
// lifecycle state, per-action validation, and the status-journal store
// contract.
package job

import (
	"encoding/json"
	"time"

	"github.com/scum-dog/identikit-server-sub001/id"
)

// Action identifies which record mutation a job requests.
type Action string

const (
	// ActionCreate inserts a new record owned by the job's owner.
	ActionCreate Action = "create"
	// ActionUpdate rewrites an existing record, subject to the store's
	// edit-eligibility predicate.
	ActionUpdate Action = "update"
	// ActionDelete soft-deletes a record on behalf of an acting admin.
	ActionDelete Action = "delete"
)

// Priority is the ordinal urgency tier of a job.
// Higher tiers are drained first; CRITICAL and HIGH share a lane.
type Priority int

const (
	// PriorityLow is routine background work.
	PriorityLow Priority = iota
	// PriorityNormal is the default tier.
	PriorityNormal
	// PriorityHigh is urgent work (e.g. user-facing edits).
	PriorityHigh
	// PriorityCritical is moderation-grade work. It shares the high
	// lane; the extra tier exists so producers can express intent.
	PriorityCritical
)

// String returns the lowercase tier name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// State represents the lifecycle state of a job.
type State string

const (
	// StatePending means the job is waiting in a lane.
	StatePending State = "pending"
	// StateProcessing means a worker currently owns the job.
	StateProcessing State = "processing"
	// StateCompleted means the job's mutation was applied.
	StateCompleted State = "completed"
	// StateFailed means the job failed terminally.
	StateFailed State = "failed"
	// StateRetrying means the job failed transiently and will re-enter
	// its lane after a backoff delay.
	StateRetrying State = "retrying"
)

// Context is the optional metadata bag attached to a job. Delete jobs
// must carry the acting admin; everything else is provenance.
type Context struct {
	ActingAdminID string `json:"acting_admin_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Origin        string `json:"origin,omitempty"`
}

// Job is one queued mutation request. Once enqueued it is immutable
// from the producer's point of view; the lifecycle fields below the
// request fields are owned by the worker that processes it.
type Job struct {
	ID       id.JobID        `json:"id"`
	Action   Action          `json:"action"`
	OwnerID  string          `json:"owner_id"`
	TargetID string          `json:"target_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Context  *Context        `json:"context,omitempty"`
	Priority Priority        `json:"priority"`

	State       State         `json:"state"`
	MaxRetries  int           `json:"max_retries"`
	RetryCount  int           `json:"retry_count"`
	LastError   string        `json:"last_error,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
	EnqueuedAt  time.Time     `json:"enqueued_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ActingAdminID returns the acting admin from the job context, or ""
// if no context was attached.
func (j *Job) ActingAdminID() string {
	if j.Context == nil {
		return ""
	}
	return j.Context.ActingAdminID
}
