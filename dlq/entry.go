// Package dlq implements the dead letter queue: the sink for jobs that
// exhausted their retry budget. Entries keep enough of the original job
// to inspect what failed and to replay it as a fresh job.
package dlq

import (
	"encoding/json"
	"time"

	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
)

// Entry represents a job that failed terminally and was moved to the
// dead letter queue for inspection or replay.
type Entry struct {
	ID         id.DLQID        `json:"id"`
	JobID      id.JobID        `json:"job_id"`
	Action     job.Action      `json:"action"`
	OwnerID    string          `json:"owner_id,omitempty"`
	TargetID   string          `json:"target_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Context    *job.Context    `json:"context,omitempty"`
	Priority   job.Priority    `json:"priority"`
	Error      string          `json:"error"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	FailedAt   time.Time       `json:"failed_at"`
	ReplayedAt *time.Time      `json:"replayed_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
