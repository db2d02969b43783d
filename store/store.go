// Package store defines the aggregate persistence interface. Each
// subsystem (record, job, dlq) defines its own store interface; the
// composite Store composes them all. Backends: Postgres, Redis (journal
// and DLQ only), and Memory.
package store

import (
	"context"

	"github.com/scum-dog/identikit-server-sub001/dlq"
	"github.com/scum-dog/identikit-server-sub001/job"
	"github.com/scum-dog/identikit-server-sub001/record"
)

// Store is the aggregate persistence interface.
// A single backend (memory, postgres) implements all of it.
type Store interface {
	record.Store
	job.Store
	dlq.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
