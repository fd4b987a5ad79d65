package dayrunner

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-dayrunner/exitcodes"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include configuration errors, an unreadable base directory, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// ItemFailureError is returned when a work item's test command fails.
// The process exits with ExitCode, the failing command's own status.
type ItemFailureError struct {
	Label    string
	ExitCode int
}

func (e *ItemFailureError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d", e.Label, e.ExitCode)
}

// NewItemFailureError creates a new ItemFailureError
func NewItemFailureError(label string, exitCode int) *ItemFailureError {
	return &ItemFailureError{Label: label, ExitCode: exitCode}
}

// IsItemFailureError checks if the error is or wraps an ItemFailureError
func IsItemFailureError(err error) bool {
	var itemErr *ItemFailureError
	return err != nil && errors.As(err, &itemErr)
}

// ExitCode maps an error returned by a run to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return exitcodes.Success
	}
	var itemErr *ItemFailureError
	if errors.As(err, &itemErr) && itemErr.ExitCode != exitcodes.Success {
		return itemErr.ExitCode
	}
	if errors.As(err, &itemErr) {
		return exitcodes.GenericFailure
	}
	return exitcodes.RuntimeErr
}
