package faults

import "errors"

type ErrorCategory string

const (
	// RepositoryError marks a path that is not a usable repository root.
	RepositoryError ErrorCategory = "RepositoryError"
	// CommitError marks a failure while staging or committing local changes.
	CommitError ErrorCategory = "CommitError"
	// PushError marks a push that failed for transport reasons (network, auth).
	PushError ErrorCategory = "PushError"
	// PushRejectedError marks a push the remote refused as non-fast-forward.
	PushRejectedError ErrorCategory = "PushRejectedError"
	// PullError marks a pull that failed for transport reasons or a missing remote.
	PullError ErrorCategory = "PullError"
	// MergeConflictError marks a pull whose merge cannot complete automatically.
	// Conflicts are reported verbatim for manual resolution, never auto-resolved.
	MergeConflictError ErrorCategory = "MergeConflictError"
)

type TypedError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

func IsCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.Category == category
}

// Category returns the category carried by err, or "" when err carries none.
func Category(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return ""
	}
	return typedErr.Category
}
