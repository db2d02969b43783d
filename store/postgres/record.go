package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scum-dog/identikit-server-sub001/id"
	"github.com/scum-dog/identikit-server-sub001/record"
)

// Create inserts a new record owned by ownerID.
func (s *Store) Create(ctx context.Context, ownerID string, payload []byte) (*record.Record, error) {
	recordID := id.NewRecordID().String()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO pipeline_records (id, owner_id, data)
		VALUES ($1, $2, $3)
		RETURNING
			id, owner_id, data, locked,
			created_at, updated_at, deleted_at, deleted_by`,
		recordID, ownerID, payload,
	)

	r, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("pipeline/postgres: create record: %w", err)
	}
	return r, nil
}

// UpdateIfEditable rewrites the record's data if the eligibility
// predicate allows it. The predicate is the WHERE clause of a single
// UPDATE: the record must exist, belong to ownerID, not be locked, and
// not be soft-deleted. On a miss a follow-up read distinguishes a
// missing record from an ineligible one.
func (s *Store) UpdateIfEditable(ctx context.Context, recordID, ownerID string, payload []byte) (*record.Record, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE pipeline_records
		SET data = $3, updated_at = NOW()
		WHERE id = $1
		  AND owner_id = $2
		  AND NOT locked
		  AND deleted_at IS NULL
		RETURNING
			id, owner_id, data, locked,
			created_at, updated_at, deleted_at, deleted_by`,
		recordID, ownerID, payload,
	)

	r, err := scanRecord(row)
	if err == nil {
		return r, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("pipeline/postgres: update record: %w", err)
	}

	// The predicate rejected the write; find out why.
	var deleted bool
	err = s.pool.QueryRow(ctx,
		`SELECT deleted_at IS NOT NULL FROM pipeline_records WHERE id = $1`,
		recordID,
	).Scan(&deleted)
	if err != nil {
		if isNoRows(err) {
			return nil, record.ErrNotFound
		}
		return nil, fmt.Errorf("pipeline/postgres: check record: %w", err)
	}
	if deleted {
		return nil, record.ErrNotFound
	}
	return nil, record.ErrEditNotPermitted
}

// SoftDelete marks the record deleted, stamping the acting admin and
// the deletion time.
func (s *Store) SoftDelete(ctx context.Context, recordID, actingAdminID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE pipeline_records
		SET deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		recordID, actingAdminID,
	)
	if err != nil {
		return fmt.Errorf("pipeline/postgres: soft delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return record.ErrNotFound
	}
	return nil
}

// Get retrieves a record by ID, including soft-deleted ones.
func (s *Store) Get(ctx context.Context, recordID string) (*record.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			id, owner_id, data, locked,
			created_at, updated_at, deleted_at, deleted_by
		FROM pipeline_records
		WHERE id = $1`,
		recordID,
	)

	r, err := scanRecord(row)
	if err != nil {
		if isNoRows(err) {
			return nil, record.ErrNotFound
		}
		return nil, fmt.Errorf("pipeline/postgres: get record: %w", err)
	}
	return r, nil
}

// scanRecord scans a single record row.
func scanRecord(row pgx.Row) (*record.Record, error) {
	var (
		r         record.Record
		deletedBy *string
	)
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.Data, &r.Locked,
		&r.CreatedAt, &r.UpdatedAt, &r.DeletedAt, &deletedBy,
	)
	if err != nil {
		return nil, err
	}
	if deletedBy != nil {
		r.DeletedBy = *deletedBy
	}
	return &r, nil
}
