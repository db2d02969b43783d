package pipeline

import "errors"

var (
	// ErrNoRecordStore means New was called without a record store.
	ErrNoRecordStore = errors.New("pipeline: no record store configured")

	// ErrShutdown means the pipeline has been shut down and no longer
	// accepts jobs.
	ErrShutdown = errors.New("pipeline: shut down")
)
