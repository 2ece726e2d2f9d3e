package report

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes pipeline failures for the API layer.
type ErrorKind string

// Error kinds surfaced to callers.
const (
	KindBlock       ErrorKind = "block"
	KindAcquisition ErrorKind = "acquisition"
	KindModel       ErrorKind = "model_exhaustion"
	KindInternal    ErrorKind = "internal"
)

// ErrNoSnapshot indicates the archive resolver found no usable snapshot.
var ErrNoSnapshot = errors.New("no archive snapshot available")

// PipelineError wraps an underlying failure with its taxonomy kind.
type PipelineError struct {
	Kind ErrorKind
	Err  error

	// ManualPrompt is set on block errors so the caller can offer a
	// copy-paste prompt for manual analysis.
	ManualPrompt string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError wraps err with the given kind.
func NewPipelineError(kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, defaulting to KindInternal.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
