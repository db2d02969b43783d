package pipeline

import "time"

// Config holds configuration for the Pipeline.
type Config struct {
	// Workers is the number of concurrent worker goroutines draining
	// the priority lanes.
	Workers int

	// PollInterval is how long an idle worker sleeps before checking
	// the lanes again.
	PollInterval time.Duration

	// AnomalyBackoff is how long a worker pauses after recovering from
	// an unexpected panic in its loop.
	AnomalyBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         5,
		PollInterval:    100 * time.Millisecond,
		AnomalyBackoff:  time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}
