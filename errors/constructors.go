package errors

import "fmt"

// New creates a PlatformError with the default classification of code.
//
// Example:
//
//	err := errors.New(errors.CodeInvalidConfig, "bucket is required")
func New(code ErrorCode, message string) PlatformError {
	return &storageError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
	}
}

// Newf creates a PlatformError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) PlatformError {
	return New(code, fmt.Sprintf(format, args...))
}
