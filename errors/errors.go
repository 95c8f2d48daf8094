package errors

// PlatformError extends the standard error interface with structured information.
//
// It is compatible with errors.Is, errors.As and errors.Unwrap.
type PlatformError interface {
	error

	// Code returns the error code identifying the type of error.
	Code() ErrorCode

	// Classification returns whether the error is retryable or permanent.
	Classification() ErrorClassification

	// Message returns the human-readable error message.
	Message() string

	// Context returns attached metadata as a read-only copy.
	// Returns nil if no context has been attached.
	Context() map[string]any

	// Unwrap returns the wrapped error, or nil.
	Unwrap() error
}
