package supervisor

import (
	"errors"
	"fmt"

	"github.com/smazurov/encodenode/internal/pipeline"
)

// ErrorKind classifies supervisor failures.
type ErrorKind string

// Error kinds.
const (
	ErrInitializationFailure       ErrorKind = "INITIALIZATION_FAILURE"
	ErrUnrecoverableRuntimeFailure ErrorKind = "UNRECOVERABLE_RUNTIME_FAILURE"
	ErrRecoveryFailure             ErrorKind = "RECOVERY_FAILURE"
	ErrCaptureStartFailure         ErrorKind = "CAPTURE_START_FAILURE"
)

// Error reports the stage that failed and the pipeline status it returned.
type Error struct {
	Kind   ErrorKind
	Stage  string
	Status pipeline.Status
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Stage, e.Status)
}

// IsKind reports whether err is a supervisor error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Kind == kind
}

// ExitCode maps the result of a supervised run to a process exit code.
// A capture start failure is a handled early exit.
func ExitCode(err error) int {
	if err == nil || IsKind(err, ErrCaptureStartFailure) {
		return 0
	}
	return 1
}
