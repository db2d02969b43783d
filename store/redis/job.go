package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
)

// SaveJob stores the job as a Hash and tracks its ID. Jobs are keyed by
// ID, so repeated saves overwrite in place.
func (s *Store) SaveJob(ctx context.Context, j *job.Job) error {
	jID := j.ID.String()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, jobKey(jID), jobToMap(j))
	pipe.SAdd(ctx, jobIDsKey, jID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline/redis: save job: %w", err)
	}
	return nil
}

// GetJob retrieves a journaled job by ID.
func (s *Store) GetJob(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	vals, err := s.client.HGetAll(ctx, jobKey(jobID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("pipeline/redis: get job: %w", err)
	}
	if len(vals) == 0 {
		return nil, job.ErrJobNotFound
	}
	return mapToJob(vals)
}

// ListJobsByState returns journaled jobs in the given state, newest
// first by enqueue time.
func (s *Store) ListJobsByState(ctx context.Context, state job.State, opts job.ListOpts) ([]*job.Job, error) {
	ids, err := s.client.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("pipeline/redis: list jobs smembers: %w", err)
	}

	jobs := make([]*job.Job, 0, len(ids))
	for _, jID := range ids {
		vals, getErr := s.client.HGetAll(ctx, jobKey(jID)).Result()
		if getErr != nil || len(vals) == 0 {
			continue // skip missing
		}
		j, convErr := mapToJob(vals)
		if convErr != nil {
			continue
		}
		if j.State != state {
			continue
		}
		if opts.Action != "" && j.Action != opts.Action {
			continue
		}
		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].EnqueuedAt.After(jobs[k].EnqueuedAt)
	})

	if opts.Offset > 0 && opts.Offset < len(jobs) {
		jobs = jobs[opts.Offset:]
	} else if opts.Offset >= len(jobs) && opts.Offset > 0 {
		return nil, nil
	}
	if opts.Limit > 0 && opts.Limit < len(jobs) {
		jobs = jobs[:opts.Limit]
	}
	return jobs, nil
}

// CountJobs returns the number of journaled jobs matching the given
// options.
func (s *Store) CountJobs(ctx context.Context, opts job.CountOpts) (int64, error) {
	ids, err := s.client.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("pipeline/redis: count jobs smembers: %w", err)
	}

	var count int64
	for _, jID := range ids {
		vals, getErr := s.client.HGetAll(ctx, jobKey(jID)).Result()
		if getErr != nil || len(vals) == 0 {
			continue
		}
		j, convErr := mapToJob(vals)
		if convErr != nil {
			continue
		}
		if opts.State != "" && j.State != opts.State {
			continue
		}
		if opts.Action != "" && j.Action != opts.Action {
			continue
		}
		count++
	}
	return count, nil
}

// ── helpers ──

func jobToMap(j *job.Job) map[string]interface{} {
	m := map[string]interface{}{
		"id":          j.ID.String(),
		"action":      string(j.Action),
		"owner_id":    j.OwnerID,
		"target_id":   j.TargetID,
		"payload":     string(j.Payload),
		"priority":    strconv.Itoa(int(j.Priority)),
		"state":       string(j.State),
		"max_retries": strconv.Itoa(j.MaxRetries),
		"retry_count": strconv.Itoa(j.RetryCount),
		"last_error":  j.LastError,
		"timeout_ns":  strconv.FormatInt(int64(j.Timeout), 10),
		"enqueued_at": j.EnqueuedAt.Format(time.RFC3339Nano),
		"updated_at":  j.UpdatedAt.Format(time.RFC3339Nano),
	}
	if j.Context != nil {
		if data, err := json.Marshal(j.Context); err == nil {
			m["context"] = string(data)
		}
	}
	if j.StartedAt != nil {
		m["started_at"] = j.StartedAt.Format(time.RFC3339Nano)
	}
	if j.CompletedAt != nil {
		m["completed_at"] = j.CompletedAt.Format(time.RFC3339Nano)
	}
	return m
}

func mapToJob(m map[string]string) (*job.Job, error) {
	jID, err := id.ParseJobID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("pipeline/redis: parse job id: %w", err)
	}
	priority, _ := strconv.Atoi(m["priority"])                        //nolint:errcheck // best-effort parse from trusted Redis data
	maxRetries, _ := strconv.Atoi(m["max_retries"])                   //nolint:errcheck // best-effort parse from trusted Redis data
	retryCount, _ := strconv.Atoi(m["retry_count"])                   //nolint:errcheck // best-effort parse from trusted Redis data
	timeoutNs, _ := strconv.ParseInt(m["timeout_ns"], 10, 64)         //nolint:errcheck // best-effort parse from trusted Redis data
	enqueuedAt, _ := time.Parse(time.RFC3339Nano, m["enqueued_at"])   //nolint:errcheck // best-effort parse from trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"])     //nolint:errcheck // best-effort parse from trusted Redis data

	j := &job.Job{
		ID:         jID,
		Action:     job.Action(m["action"]),
		OwnerID:    m["owner_id"],
		TargetID:   m["target_id"],
		Payload:    []byte(m["payload"]),
		Priority:   job.Priority(priority),
		State:      job.State(m["state"]),
		MaxRetries: maxRetries,
		RetryCount: retryCount,
		LastError:  m["last_error"],
		Timeout:    time.Duration(timeoutNs),
		EnqueuedAt: enqueuedAt,
		UpdatedAt:  updatedAt,
	}

	if v := m["context"]; v != "" {
		var c job.Context
		if uErr := json.Unmarshal([]byte(v), &c); uErr == nil {
			j.Context = &c
		}
	}
	if v := m["started_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		j.StartedAt = &t
	}
	if v := m["completed_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		j.CompletedAt = &t
	}
	return j, nil
}
