package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
)

// SaveJob inserts or replaces the journal entry for a job.
func (s *Store) SaveJob(ctx context.Context, j *job.Job) error {
	contextJSON, err := marshalContext(j.Context)
	if err != nil {
		return fmt.Errorf("pipeline/postgres: marshal job context: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO pipeline_jobs (
			id, action, owner_id, target_id, payload, context, priority,
			state, max_retries, retry_count, last_error, timeout,
			enqueued_at, started_at, completed_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16
		)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			retry_count = EXCLUDED.retry_count,
			last_error = EXCLUDED.last_error,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at`,
		j.ID.String(), string(j.Action), j.OwnerID, j.TargetID,
		j.Payload, contextJSON, int(j.Priority),
		string(j.State), j.MaxRetries, j.RetryCount, j.LastError,
		j.Timeout.Nanoseconds(),
		j.EnqueuedAt, j.StartedAt, j.CompletedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("pipeline/postgres: save job: %w", err)
	}
	return nil
}

// GetJob retrieves a journaled job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			id, action, owner_id, target_id, payload, context, priority,
			state, max_retries, retry_count, last_error, timeout,
			enqueued_at, started_at, completed_at, updated_at
		FROM pipeline_jobs
		WHERE id = $1`,
		jobID.String(),
	)

	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, job.ErrJobNotFound
		}
		return nil, fmt.Errorf("pipeline/postgres: get job: %w", err)
	}
	return j, nil
}

// ListJobsByState returns journaled jobs in the given state, newest first.
func (s *Store) ListJobsByState(ctx context.Context, state job.State, opts job.ListOpts) ([]*job.Job, error) {
	query := `
		SELECT
			id, action, owner_id, target_id, payload, context, priority,
			state, max_retries, retry_count, last_error, timeout,
			enqueued_at, started_at, completed_at, updated_at
		FROM pipeline_jobs
		WHERE state = $1`
	args := []interface{}{string(state)}
	argIdx := 2

	if opts.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, string(opts.Action))
		argIdx++
	}

	query += " ORDER BY enqueued_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pipeline/postgres: list jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// CountJobs returns the number of journaled jobs matching the options.
func (s *Store) CountJobs(ctx context.Context, opts job.CountOpts) (int64, error) {
	query := `SELECT COUNT(*) FROM pipeline_jobs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if opts.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, string(opts.Action))
		argIdx++
	}
	if opts.State != "" {
		query += fmt.Sprintf(" AND state = $%d", argIdx)
		args = append(args, string(opts.State))
	}

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("pipeline/postgres: count jobs: %w", err)
	}
	return count, nil
}

// scanJob scans a single job row.
func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j           job.Job
		idStr       string
		actionStr   string
		stateStr    string
		priority    int
		contextJSON []byte
		timeoutNs   int64
	)
	err := row.Scan(
		&idStr, &actionStr, &j.OwnerID, &j.TargetID,
		&j.Payload, &contextJSON, &priority,
		&stateStr, &j.MaxRetries, &j.RetryCount, &j.LastError, &timeoutNs,
		&j.EnqueuedAt, &j.StartedAt, &j.CompletedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Action = job.Action(actionStr)
	j.State = job.State(stateStr)
	j.Priority = job.Priority(priority)
	j.Timeout = time.Duration(timeoutNs)

	if len(contextJSON) > 0 {
		var jc job.Context
		if err := json.Unmarshal(contextJSON, &jc); err != nil {
			return nil, fmt.Errorf("pipeline/postgres: unmarshal job context: %w", err)
		}
		j.Context = &jc
	}

	parsedID, parseErr := id.ParseJobID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("pipeline/postgres: parse job id %q: %w", idStr, parseErr)
	}
	j.ID = parsedID

	return &j, nil
}

// collectJobs collects all jobs from query rows.
func collectJobs(rows pgx.Rows) ([]*job.Job, error) {
	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("pipeline/postgres: scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeline/postgres: iterate job rows: %w", err)
	}
	return jobs, nil
}

// marshalContext serializes a job context for the JSONB column.
// A nil context stores SQL NULL.
func marshalContext(c *job.Context) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}
