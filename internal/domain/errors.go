package domain

import "errors"

// ErrNotFound marks an absent (or already consumed) ephemeral record.
var ErrNotFound = errors.New("not found")

// ErrTimeout marks an external call that exceeded its wall-clock ceiling.
var ErrTimeout = errors.New("operation timed out")

// FailKind classifies a pipeline failure for logging and HTTP mapping.
type FailKind string

const (
	FailValidation FailKind = "validation"
	FailFetch      FailKind = "fetch"
	FailTimeout    FailKind = "timeout"
	FailSummary    FailKind = "summary"
	FailStorage    FailKind = "storage"
	FailPublish    FailKind = "publish"
)

// PipelineError is the only error shape that crosses the pipeline
// boundary. Message is safe to show to the user; the wrapped error is
// for logs only.
type PipelineError struct {
	Kind    FailKind
	Message string
	Err     error
}

func NewPipelineError(kind FailKind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
