package errors

import (
	"fmt"
	"maps"
)

// Wrap wraps err with a code and message while keeping err in the chain.
//
// If err already carries a PlatformError, its classification is preserved.
// Otherwise the default classification for code is used.
// Returns nil if err is nil.
//
// Example:
//
//	if _, err := client.StatObject(ctx, bucket, key, opts); err != nil {
//	    return errors.Wrap(err, errors.CodeStorage, "stat object")
//	}
func Wrap(err error, code ErrorCode, message string) PlatformError {
	return WrapWithContext(err, code, message, nil)
}

// Wrapf wraps err with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...any) PlatformError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WrapWithContext wraps err and attaches context metadata in one step.
// The context map is copied.
// Returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]any) PlatformError {
	if err == nil {
		return nil
	}

	classification := getDefaultClassification(code)
	var platformErr PlatformError
	if As(err, &platformErr) {
		classification = platformErr.Classification()
	}

	var contextCopy map[string]any
	if ctx != nil {
		contextCopy = maps.Clone(ctx)
	}

	return &storageError{
		code:           code,
		classification: classification,
		message:        message,
		context:        contextCopy,
		cause:          err,
	}
}
