package dlq

import (
	"context"
	"time"

	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
)

// Requeuer re-admits a replayed job into its priority lane.
// The pipeline's queue satisfies this.
type Requeuer interface {
	Enqueue(j *job.Job)
}

// Service provides high-level DLQ operations over a Store.
type Service struct {
	store   Store
	journal job.Store
	requeue Requeuer
}

// NewService creates a DLQ service. journal and requeue are used only
// by Replay and may be nil when the service is push-only.
func NewService(store Store, journal job.Store, requeue Requeuer) *Service {
	return &Service{store: store, journal: journal, requeue: requeue}
}

// Push builds a DLQ Entry from a terminally failed job and persists it.
// The error string is captured from the original processing error.
func (s *Service) Push(ctx context.Context, j *job.Job, jobErr error) error {
	now := time.Now().UTC()
	entry := &Entry{
		ID:         id.NewDLQID(),
		JobID:      j.ID,
		Action:     j.Action,
		OwnerID:    j.OwnerID,
		TargetID:   j.TargetID,
		Payload:    j.Payload,
		Context:    j.Context,
		Priority:   j.Priority,
		Error:      jobErr.Error(),
		RetryCount: j.RetryCount,
		MaxRetries: j.MaxRetries,
		FailedAt:   now,
		CreatedAt:  now,
	}
	return s.store.PushDLQ(ctx, entry)
}

// Store returns the underlying DLQ store for direct access to List,
// Get, Purge, and Count operations.
func (s *Service) Store() Store {
	return s.store
}
