package errors

import (
	"fmt"
	"maps"
)

// storageError backs every PlatformError returned for a failed backend or
// filesystem call. Values are immutable once returned; the With* helpers
// derive a new value instead of editing one in place.
type storageError struct {
	code           ErrorCode
	classification ErrorClassification
	message        string
	context        map[string]any
	cause          error
}

// Error renders the code and message, followed by the backend cause when
// there is one, e.g. "[NOT_FOUND] object not found: read a.txt: file does
// not exist".
func (e *storageError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("[%s] %s", e.code, e.message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
}

func (e *storageError) Code() ErrorCode { return e.code }

func (e *storageError) Classification() ErrorClassification { return e.classification }

func (e *storageError) Message() string { return e.message }

// Context returns a copy of the fields attached to the failure (object key,
// bucket, table), or nil when none were attached.
func (e *storageError) Context() map[string]any {
	if e.context == nil {
		return nil
	}
	return maps.Clone(e.context)
}

// Unwrap exposes the backend cause, typically an *fs.PathError around one of
// the core sentinels.
func (e *storageError) Unwrap() error {
	return e.cause
}

// derive copies err into a fresh storageError the caller may modify.
func derive(err PlatformError) *storageError {
	return &storageError{
		code:           err.Code(),
		classification: err.Classification(),
		message:        err.Message(),
		context:        err.Context(),
		cause:          err.Unwrap(),
	}
}

// asPlatformError returns err as a PlatformError. A plain backend error
// becomes a permanent CodeUnknown error with err as its cause.
func asPlatformError(err error) PlatformError {
	var storageErr PlatformError
	if As(err, &storageErr) {
		return storageErr
	}
	return &storageError{
		code:           CodeUnknown,
		classification: ClassificationPermanent,
		message:        err.Error(),
		cause:          err,
	}
}
