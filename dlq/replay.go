package dlq

import (
	"context"
	"time"

	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
)

// Replay re-enqueues a DLQ entry as a new pending job and marks the
// entry as replayed. The new job gets a fresh ID and a zero retry
// count; it enters the lane its priority maps to.
func (s *Service) Replay(ctx context.Context, entryID id.DLQID) (*job.Job, error) {
	entry, err := s.store.GetDLQ(ctx, entryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	j := &job.Job{
		ID:         id.NewJobID(),
		Action:     entry.Action,
		OwnerID:    entry.OwnerID,
		TargetID:   entry.TargetID,
		Payload:    entry.Payload,
		Context:    entry.Context,
		Priority:   entry.Priority,
		State:      job.StatePending,
		MaxRetries: entry.MaxRetries,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}

	if s.journal != nil {
		if err := s.journal.SaveJob(ctx, j); err != nil {
			return nil, err
		}
	}

	s.requeue.Enqueue(j)

	if err := s.store.ReplayDLQ(ctx, entryID); err != nil {
		// The job is already back in its lane. Report but don't undo.
		return j, err
	}

	return j, nil
}
