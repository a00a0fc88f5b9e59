package models

import (
	"errors"
	"fmt"
)

// Failure classes shared by the store packages. Absence and malformed
// content are absorbed into nil fields by the loader; only invalid names,
// precondition violations and infrastructure failures reach callers.
var (
	ErrInvalidName       = errors.New("invalid experiment name")
	ErrNotFoundLocally   = errors.New("artifact not found locally")
	ErrNotFoundRemotely  = errors.New("artifact not found remotely")
	ErrMalformedArtifact = errors.New("malformed artifact")
	ErrInfrastructure    = errors.New("remote storage unavailable")
	ErrPrecondition      = errors.New("precondition violated")
)

// PreconditionError reports that an operation was handed an experiment
// that lacks what it needs (usually results or metadata).
type PreconditionError struct {
	Op         string
	Experiment string
	Reason     string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: experiment %q: %s", e.Op, e.Experiment, e.Reason)
}

// Is makes errors.Is(err, ErrPrecondition) match.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}
