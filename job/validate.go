package job

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of all job validation errors. The processor
// treats any error matching it as terminal: re-running a job cannot
// supply a field it was enqueued without.
var ErrValidation = errors.New("job: validation failed")

var (
	// ErrMissingPayload means a create or update job carries no record data.
	ErrMissingPayload = fmt.Errorf("%w: missing payload", ErrValidation)
	// ErrMissingTarget means an update or delete job names no record.
	ErrMissingTarget = fmt.Errorf("%w: missing target id", ErrValidation)
	// ErrMissingOwner means the job has no acting principal.
	ErrMissingOwner = fmt.Errorf("%w: missing owner id", ErrValidation)
	// ErrMissingActingAdmin means a delete job carries no acting admin
	// in its context.
	ErrMissingActingAdmin = fmt.Errorf("%w: missing acting admin id", ErrValidation)
	// ErrUnknownAction means the action is not create, update, or delete.
	ErrUnknownAction = fmt.Errorf("%w: unrecognized action", ErrValidation)
)

// Validate checks that the fields required by the job's action are
// present. Malformed jobs are accepted at enqueue time and only
// rejected here, during processing.
func (j *Job) Validate() error {
	switch j.Action {
	case ActionCreate:
		if j.OwnerID == "" {
			return ErrMissingOwner
		}
		if len(j.Payload) == 0 {
			return ErrMissingPayload
		}
	case ActionUpdate:
		if j.OwnerID == "" {
			return ErrMissingOwner
		}
		if j.TargetID == "" {
			return ErrMissingTarget
		}
		if len(j.Payload) == 0 {
			return ErrMissingPayload
		}
	case ActionDelete:
		if j.TargetID == "" {
			return ErrMissingTarget
		}
		if j.ActingAdminID() == "" {
			return ErrMissingActingAdmin
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, j.Action)
	}

	return nil
}
