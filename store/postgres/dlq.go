package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/scum-dog/identikit-server-sub001/dlq"
	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
)

// PushDLQ adds a failed job entry to the dead letter queue.
func (s *Store) PushDLQ(ctx context.Context, entry *dlq.Entry) error {
	contextJSON, err := marshalContext(entry.Context)
	if err != nil {
		return fmt.Errorf("pipeline/postgres: marshal dlq context: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO pipeline_dlq (
			id, job_id, action, owner_id, target_id, payload, context,
			priority, error, retry_count, max_retries,
			failed_at, replayed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID.String(), entry.JobID.String(), string(entry.Action),
		entry.OwnerID, entry.TargetID, entry.Payload, contextJSON,
		int(entry.Priority), entry.Error, entry.RetryCount, entry.MaxRetries,
		entry.FailedAt, entry.ReplayedAt, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("pipeline/postgres: push dlq: %w", err)
	}
	return nil
}

// ListDLQ returns DLQ entries matching the given options, newest
// failures first.
func (s *Store) ListDLQ(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	query := `
		SELECT
			id, job_id, action, owner_id, target_id, payload, context,
			priority, error, retry_count, max_retries,
			failed_at, replayed_at, created_at
		FROM pipeline_dlq
		WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if opts.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, opts.Action)
		argIdx++
	}

	query += " ORDER BY failed_at DESC"

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
		return nil, fmt.Errorf("pipeline/postgres: list dlq: %w", err)
	}
	defer rows.Close()

	var entries []*dlq.Entry
	for rows.Next() {
		e, scanErr := scanDLQ(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("pipeline/postgres: scan dlq row: %w", scanErr)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeline/postgres: iterate dlq rows: %w", err)
	}
	return entries, nil
}

// GetDLQ retrieves a DLQ entry by ID.
func (s *Store) GetDLQ(ctx context.Context, entryID id.DLQID) (*dlq.Entry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			id, job_id, action, owner_id, target_id, payload, context,
			priority, error, retry_count, max_retries,
			failed_at, replayed_at, created_at
		FROM pipeline_dlq
		WHERE id = $1`,
		entryID.String(),
	)

	e, err := scanDLQ(row)
	if err != nil {
		if isNoRows(err) {
			return nil, dlq.ErrEntryNotFound
		}
		return nil, fmt.Errorf("pipeline/postgres: get dlq: %w", err)
	}
	return e, nil
}

// ReplayDLQ marks a DLQ entry as replayed.
func (s *Store) ReplayDLQ(ctx context.Context, entryID id.DLQID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pipeline_dlq SET replayed_at = NOW() WHERE id = $1`,
		entryID.String(),
	)
	if err != nil {
		return fmt.Errorf("pipeline/postgres: replay dlq: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dlq.ErrEntryNotFound
	}
	return nil
}

// PurgeDLQ removes DLQ entries with FailedAt before the given time.
func (s *Store) PurgeDLQ(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM pipeline_dlq WHERE failed_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("pipeline/postgres: purge dlq: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountDLQ returns the total number of entries in the dead letter queue.
func (s *Store) CountDLQ(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pipeline_dlq`).Scan(&count); err != nil {
		return 0, fmt.Errorf("pipeline/postgres: count dlq: %w", err)
	}
	return count, nil
}

// scanDLQ scans a single DLQ entry row.
func scanDLQ(row pgx.Row) (*dlq.Entry, error) {
	var (
		e           dlq.Entry
		idStr       string
		jobIDStr    string
		actionStr   string
		contextJSON []byte
		priority    int
	)
	err := row.Scan(
		&idStr, &jobIDStr, &actionStr, &e.OwnerID, &e.TargetID,
		&e.Payload, &contextJSON,
		&priority, &e.Error, &e.RetryCount, &e.MaxRetries,
		&e.FailedAt, &e.ReplayedAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Action = job.Action(actionStr)
	e.Priority = job.Priority(priority)

	if len(contextJSON) > 0 {
		var jc job.Context
		if err := json.Unmarshal(contextJSON, &jc); err != nil {
			return nil, fmt.Errorf("pipeline/postgres: unmarshal dlq context: %w", err)
		}
		e.Context = &jc
	}

	parsedID, parseErr := id.ParseDLQID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("pipeline/postgres: parse dlq id %q: %w", idStr, parseErr)
	}
	e.ID = parsedID

	parsedJobID, parseErr := id.ParseJobID(jobIDStr)
	if parseErr != nil {
		return nil, fmt.Errorf("pipeline/postgres: parse job id %q: %w", jobIDStr, parseErr)
	}
	e.JobID = parsedJobID

	return &e, nil
}
