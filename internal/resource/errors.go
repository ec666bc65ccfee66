package resource

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrGPUAllocation reports that the GPU refused to create a buffer or
// texture. Loads failing with it are not retried.
var ErrGPUAllocation = errors.New("gpu allocation failed")

// LoadError reports a model, material or texture source that could not be
// read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadFailure(path string, err error) error {
	return &LoadError{Path: path, Err: err}
}

// allocationError marks a GPU backend error as ErrGPUAllocation while
// keeping the backend error reachable through errors.As.
type allocationError struct {
	err error
}

func (e *allocationError) Error() string {
	return ErrGPUAllocation.Error() + ": " + e.err.Error()
}

func (e *allocationError) Unwrap() []error { return []error{ErrGPUAllocation, e.err} }
