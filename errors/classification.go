package errors

// ErrorClassification indicates whether an operation may succeed if retried.
type ErrorClassification string

const (
	// ClassificationRetryable indicates a temporary failure.
	ClassificationRetryable ErrorClassification = "RETRYABLE"

	// ClassificationPermanent indicates a failure that will not go away on retry.
	ClassificationPermanent ErrorClassification = "PERMANENT"
)

// IsRetryable returns true if the classification indicates retry should be attempted.
func (c ErrorClassification) IsRetryable() bool {
	return c == ClassificationRetryable
}

var defaultClassifications = map[ErrorCode]ErrorClassification{
	CodeNetwork:     ClassificationRetryable,
	CodeTimeout:     ClassificationRetryable,
	CodeRateLimit:   ClassificationRetryable,
	CodeUnavailable: ClassificationRetryable,

	CodeNotFound:      ClassificationPermanent,
	CodeAlreadyExists: ClassificationPermanent,
	CodeUnauthorized:  ClassificationPermanent,
	CodeForbidden:     ClassificationPermanent,
	CodeInvalidInput:  ClassificationPermanent,
	CodeInvalidConfig: ClassificationPermanent,
	CodeStorage:       ClassificationPermanent,
	CodeUnsupported:   ClassificationPermanent,
	CodeInternal:      ClassificationPermanent,
	CodeUnknown:       ClassificationPermanent,
}

// getDefaultClassification returns the default classification for an error code.
// Unmapped codes are permanent.
func getDefaultClassification(code ErrorCode) ErrorClassification {
	if class, ok := defaultClassifications[code]; ok {
		return class
	}
	return ClassificationPermanent
}
