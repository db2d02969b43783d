// Package memory provides a fully in-memory store backend. Safe for
// concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scum-dog/identikit-server-sub001/dlq"
	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/job"
	"github.com/scum-dog/identikit-server-sub001/record"
	"github.com/scum-dog/identikit-server-sub001/store"
)

// Ensure Store satisfies the full aggregate contract at compile time.
var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	records map[string]*record.Record
	jobs    map[string]*job.Job
	dlqs    map[string]*dlq.Entry
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		records: make(map[string]*record.Record),
		jobs:    make(map[string]*job.Job),
		dlqs:    make(map[string]*dlq.Entry),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Record Store
// ──────────────────────────────────────────────────

// Create inserts a new record owned by ownerID.
func (m *Store) Create(_ context.Context, ownerID string, payload []byte) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	r := &record.Record{
		ID:        id.NewRecordID().String(),
		OwnerID:   ownerID,
		Data:      append([]byte(nil), payload...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.records[r.ID] = r

	cp := *r
	return &cp, nil
}

// UpdateIfEditable rewrites the record's data if the eligibility
// predicate allows it: the record must exist, not be soft-deleted, not
// be locked, and be owned by ownerID.
func (m *Store) UpdateIfEditable(_ context.Context, recordID, ownerID string, payload []byte) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[recordID]
	if !ok || r.Deleted() {
		return nil, record.ErrNotFound
	}
	if r.Locked || r.OwnerID != ownerID {
		return nil, record.ErrEditNotPermitted
	}

	r.Data = append([]byte(nil), payload...)
	r.UpdatedAt = time.Now().UTC()

	cp := *r
	return &cp, nil
}

// SoftDelete marks the record deleted, stamping the acting admin and
// the deletion time. Deleting an already-deleted record reports
// ErrNotFound, same as a missing one.
func (m *Store) SoftDelete(_ context.Context, recordID, actingAdminID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[recordID]
	if !ok || r.Deleted() {
		return record.ErrNotFound
	}

	now := time.Now().UTC()
	r.DeletedAt = &now
	r.DeletedBy = actingAdminID
	r.UpdatedAt = now
	return nil
}

// Get retrieves a record by ID, including soft-deleted ones.
func (m *Store) Get(_ context.Context, recordID string) (*record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[recordID]
	if !ok {
		return nil, record.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// SetLocked flips the lock flag on a record. Locked records reject
// updates through the eligibility predicate.
func (m *Store) SetLocked(recordID string, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[recordID]
	if !ok {
		return record.ErrNotFound
	}
	r.Locked = locked
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// ──────────────────────────────────────────────────
// Job Journal
// ──────────────────────────────────────────────────

// SaveJob inserts or replaces the journal entry for a job.
func (m *Store) SaveJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *j
	m.jobs[j.ID.String()] = &cp
	return nil
}

// GetJob retrieves a journaled job by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, job.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// ListJobsByState returns journaled jobs in the given state, newest first.
func (m *Store) ListJobsByState(_ context.Context, state job.State, opts job.ListOpts) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*job.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if j.State != state {
			continue
		}
		if opts.Action != "" && j.Action != opts.Action {
			continue
		}
		cp := *j
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].EnqueuedAt.After(result[k].EnqueuedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// CountJobs returns the number of journaled jobs matching the options.
func (m *Store) CountJobs(_ context.Context, opts job.CountOpts) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, j := range m.jobs {
		if opts.Action != "" && j.Action != opts.Action {
			continue
		}
		if opts.State != "" && j.State != opts.State {
			continue
		}
		count++
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Dead Letter Queue
// ──────────────────────────────────────────────────

// PushDLQ adds a failed job entry to the dead letter queue.
func (m *Store) PushDLQ(_ context.Context, entry *dlq.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *entry
	m.dlqs[entry.ID.String()] = &cp
	return nil
}

// ListDLQ returns DLQ entries matching the given options, newest
// failures first.
func (m *Store) ListDLQ(_ context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*dlq.Entry, 0, len(m.dlqs))
	for _, e := range m.dlqs {
		if opts.Action != "" && string(e.Action) != opts.Action {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].FailedAt.After(result[k].FailedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// GetDLQ retrieves a DLQ entry by ID.
func (m *Store) GetDLQ(_ context.Context, entryID id.DLQID) (*dlq.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.dlqs[entryID.String()]
	if !ok {
		return nil, dlq.ErrEntryNotFound
	}
	cp := *e
	return &cp, nil
}

// ReplayDLQ marks a DLQ entry as replayed.
func (m *Store) ReplayDLQ(_ context.Context, entryID id.DLQID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.dlqs[entryID.String()]
	if !ok {
		return dlq.ErrEntryNotFound
	}
	now := time.Now().UTC()
	e.ReplayedAt = &now
	return nil
}

// PurgeDLQ removes DLQ entries with FailedAt before the given time.
func (m *Store) PurgeDLQ(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for key, e := range m.dlqs {
		if e.FailedAt.Before(before) {
			delete(m.dlqs, key)
			count++
		}
	}
	return count, nil
}

// CountDLQ returns the total number of entries in the dead letter queue.
func (m *Store) CountDLQ(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.dlqs)), nil
}
