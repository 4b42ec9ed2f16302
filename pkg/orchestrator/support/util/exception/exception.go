// Package exception provides the error taxonomy for the swell orchestration core.
// Every failure surfaced by the core carries a Kind from a closed set, the module
// where it occurred, and enough context (ids, statuses, response bodies) to be
// actionable without a re-query.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind classifies an OrchestrationError. The set is closed; callers branch on
// Kind rather than on message contents.
type Kind string

const (
	// KindValidation indicates malformed or contradictory input, such as an
	// exactly-one-of violation or an unrecognized status string.
	KindValidation Kind = "VALIDATION"
	// KindNotFound indicates a missing batch, job, or configuration id.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict indicates the duplicate-batch guard triggered, or an
	// operation that would double-apply (e.g. re-submitting a submitted job).
	KindConflict Kind = "CONFLICT"
	// KindIllegalTransition indicates a state-machine violation.
	KindIllegalTransition Kind = "ILLEGAL_TRANSITION"
	// KindRemoteService indicates a non-retryable remote failure; the parsed
	// response body is carried in Details.
	KindRemoteService Kind = "REMOTE_SERVICE"
	// KindTimeout indicates a poll deadline was exceeded.
	KindTimeout Kind = "TIMEOUT"
	// KindTransient indicates a retryable failure. It is retried internally by
	// the Remote Workflow Client and surfaced only after exhaustion.
	KindTransient Kind = "TRANSIENT"
)

// OrchestrationError is the error type raised by the orchestration core.
// It wraps the original cause and records the module where it occurred,
// following the structure of a batch-framework error.
type OrchestrationError struct {
	// Kind is the taxonomy classification of this error.
	Kind Kind
	// Module indicates where the error occurred (e.g. "batch_manager", "remote").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error, if any.
	OriginalErr error
	// Details carries structured context such as conflicting batch ids,
	// attempted transitions, or parsed remote response bodies.
	Details map[string]interface{}
	// StackTrace is the stack captured at construction time (for debugging).
	StackTrace string
}

// New creates a new OrchestrationError of the given kind.
func New(kind Kind, module, message string, originalErr error) *OrchestrationError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &OrchestrationError{
		Kind:        kind,
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		Details:     make(map[string]interface{}),
		StackTrace:  string(buf[:n]),
	}
}

// Newf creates a new OrchestrationError with a formatted message. If the last
// argument is an error, it is extracted and wrapped instead of being formatted.
func Newf(kind Kind, module, format string, a ...interface{}) *OrchestrationError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return New(kind, module, fmt.Sprintf(format, args...), originalErr)
}

// WithDetail attaches a key/value context pair and returns the receiver for chaining.
func (e *OrchestrationError) WithDetail(key string, value interface{}) *OrchestrationError {
	e.Details[key] = value
	return e
}

// Error implements the error interface.
func (e *OrchestrationError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s (%s): %v", e.Module, e.Message, e.Kind, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s (%s)", e.Module, e.Message, e.Kind)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *OrchestrationError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable reports whether this error may be retried. Only transient
// failures are retryable; every other kind surfaces immediately.
func (e *OrchestrationError) IsRetryable() bool {
	return e.Kind == KindTransient
}

// KindOf returns the Kind of err if it is (or wraps) an OrchestrationError,
// and an empty Kind otherwise.
func KindOf(err error) Kind {
	var oe *OrchestrationError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return Kind("")
}

// IsKind reports whether err is an OrchestrationError of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return IsKind(err, KindConflict) }

// IsIllegalTransition reports whether err is a state-machine violation.
func IsIllegalTransition(err error) bool { return IsKind(err, KindIllegalTransition) }

// IsRemoteService reports whether err is a non-retryable remote failure.
func IsRemoteService(err error) bool { return IsKind(err, KindRemoteService) }

// IsTimeout reports whether err is a poll-deadline failure.
func IsTimeout(err error) bool { return IsKind(err, KindTimeout) }

// IsTransient reports whether err is a retryable failure.
func IsTransient(err error) bool { return IsKind(err, KindTransient) }

// Detail extracts a context value from an OrchestrationError chain.
// It returns nil and false when err carries no such detail.
func Detail(err error, key string) (interface{}, bool) {
	var oe *OrchestrationError
	if !errors.As(err, &oe) {
		return nil, false
	}
	v, ok := oe.Details[key]
	return v, ok
}

// ExtractErrorMessage returns the cleaner Message field for OrchestrationError
// values and the standard Error() string otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var oe *OrchestrationError
	if errors.As(err, &oe) {
		return oe.Message
	}
	return err.Error()
}
