package errors

import (
	stderrors "errors"
)

// Is reports whether any error in err's chain matches target.
// It is a convenience wrapper around the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// It is a convenience wrapper around the standard library errors.As.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// GetCode extracts the ErrorCode of the outermost PlatformError in err's chain.
// Returns CodeUnknown if err is nil or carries no PlatformError.
//
// Example:
//
//	if errors.GetCode(err) == errors.CodeAlreadyExists {
//	    // pick another key
//	}
func GetCode(err error) ErrorCode {
	var platformErr PlatformError
	if err != nil && stderrors.As(err, &platformErr) {
		return platformErr.Code()
	}
	return CodeUnknown
}

// GetClassification extracts the classification of the outermost
// PlatformError in err's chain. Returns ClassificationPermanent if err is nil
// or carries no PlatformError.
func GetClassification(err error) ErrorClassification {
	var platformErr PlatformError
	if err != nil && stderrors.As(err, &platformErr) {
		return platformErr.Classification()
	}
	return ClassificationPermanent
}

// IsRetryable returns true if err is classified as retryable.
func IsRetryable(err error) bool {
	return GetClassification(err).IsRetryable()
}
