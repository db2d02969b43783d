package job

import (
	"context"
	"errors"

	"github.com/scum-dog/identikit-server-sub001/id"
)

// ErrJobNotFound is returned by a Store when no job has the given ID.
var ErrJobNotFound = errors.New("job: not found")

// ListOpts controls pagination and filtering for job list queries.
type ListOpts struct {
	// Limit is the maximum number of jobs to return. Zero means no limit.
	Limit int
	// Offset is the number of jobs to skip.
	Offset int
	// Action filters by job action. Empty means all actions.
	Action Action
}

// CountOpts controls filtering for job count queries.
type CountOpts struct {
	// Action filters by job action. Empty means all actions.
	Action Action
	// State filters by job state. Empty means all states.
	State State
}

// Store is the status journal: it records job lifecycle transitions so
// outcomes are queryable after processing. The lanes themselves are
// in-memory; the journal is observational and never gates processing.
type Store interface {
	// SaveJob inserts or replaces the journal entry for a job.
	SaveJob(ctx context.Context, j *Job) error

	// GetJob retrieves a journaled job by ID.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// ListJobsByState returns journaled jobs in the given state,
	// newest first.
	ListJobsByState(ctx context.Context, state State, opts ListOpts) ([]*Job, error)

	// CountJobs returns the number of journaled jobs matching the
	// given options.
	CountJobs(ctx context.Context, opts CountOpts) (int64, error)
}
