package inspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/dllstage/pkg/errors"
)

// Inspector lists the dependencies a file declares.
type Inspector interface {
	// Inspect returns the non-excluded DLL names declared by the file at
	// path, without duplicates. Any error aborts the resolution run.
	Inspect(ctx context.Context, path string) ([]Name, error)
}

// InspectError reports that a file could not be inspected.
type InspectError struct {
	Command string // Inspection command, empty for the builtin reader
	File    string // File being inspected
	Status  int    // Exit status of the command, or -1 if it did not run to completion
	Stderr  string // Captured standard error, trimmed
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *InspectError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "inspect %s", e.File)
	if e.Command != "" {
		fmt.Fprintf(&b, " with %s", e.Command)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *InspectError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *InspectError) Code() errors.Code { return errors.ErrCodeInspectFailed }

// ExitStatus returns the inspection command's exit status so the CLI can
// propagate it.
func (e *InspectError) ExitStatus() int { return e.Status }

// finish applies exclusions and rejects names that are not plain file names.
func finish(ex *Excluder, file string, declared []Name) ([]Name, error) {
	if ex == nil {
		ex = DefaultExcluder
	}
	names := ex.Filter(declared)
	for _, n := range names {
		if err := errors.ValidateDependencyName(string(n)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDependency, err, "%s declares an invalid dependency", file)
		}
	}
	return names, nil
}
