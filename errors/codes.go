package errors

// ErrorCode represents a specific error condition.
type ErrorCode string

const (
	// Object errors.

	// CodeNotFound indicates no object exists at the requested key.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates an object exists and may not be overwritten.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Permission errors.

	// CodeUnauthorized indicates the backend rejected the credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeForbidden indicates the credentials lack permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a backend configuration error.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Infrastructure errors.

	// CodeStorage indicates a generic storage failure reported by a backend.
	CodeStorage ErrorCode = "STORAGE_ERROR"

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates the backend throttled the request.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeUnavailable indicates the backend is temporarily unavailable.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// System errors.

	// CodeUnsupported indicates the backend does not support the operation.
	CodeUnsupported ErrorCode = "UNSUPPORTED"

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)
