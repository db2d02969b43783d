// Package record defines the boundary to the record store — the
// external collaborator that owns persistent storage of user-owned
// records. The pipeline treats it as an opaque synchronous dependency:
// it never pre-checks eligibility itself and relies on the store's own
// consistency rules.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound means the target record does not exist.
	ErrNotFound = errors.New("record: not found")
	// ErrEditNotPermitted means the store's eligibility predicate
	// rejected the write: the owner is not currently allowed to edit
	// that record. This is an expected business outcome, not a fault.
	ErrEditNotPermitted = errors.New("record: edit not permitted")
)

// Record is a stored record as the store reports it back.
type Record struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Data      json.RawMessage `json:"data"`
	Locked    bool            `json:"locked"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Soft-delete markers. A record with DeletedAt set still exists in
	// storage but is invisible to normal reads.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty"`
}

// Deleted reports whether the record has been soft-deleted.
func (r *Record) Deleted() bool { return r.DeletedAt != nil }

// Store is the interface the pipeline consumes from the record store.
//
// Implementations own their own concurrency safety: the pipeline calls
// these methods from every worker goroutine at once.
type Store interface {
	// Create inserts a new record owned by ownerID. Fails with a store
	// error on constraint violation.
	Create(ctx context.Context, ownerID string, payload []byte) (*Record, error)

	// UpdateIfEditable rewrites the record's data if and only if the
	// store's eligibility predicate allows ownerID to edit it right
	// now. Returns ErrEditNotPermitted when the predicate rejects the
	// write and ErrNotFound when the record does not exist.
	UpdateIfEditable(ctx context.Context, recordID, ownerID string, payload []byte) (*Record, error)

	// SoftDelete marks the record deleted, stamping the acting admin
	// and the deletion time. The record is not physically removed.
	// Returns ErrNotFound if the target does not exist.
	SoftDelete(ctx context.Context, recordID, actingAdminID string) error

	// Get retrieves a record by ID, including soft-deleted ones.
	Get(ctx context.Context, recordID string) (*Record, error)
}
