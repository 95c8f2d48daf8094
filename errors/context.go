package errors

import "maps"

// WithContext returns a copy of err with one context field added.
//
// If err is not a PlatformError, it is converted to one with CodeUnknown.
// Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithContext(err, "key", "reports/2024.csv")
func WithContext(err error, key string, value any) PlatformError {
	if err == nil {
		return nil
	}
	return WithContextMap(err, map[string]any{key: value})
}

// WithContextMap returns a copy of err with the given fields merged into its
// context. New fields override existing ones with the same key.
//
// If err is not a PlatformError, it is converted to one with CodeUnknown.
// Returns nil if err is nil.
func WithContextMap(err error, ctx map[string]any) PlatformError {
	if err == nil {
		return nil
	}

	derived := derive(asPlatformError(err))
	merged := make(map[string]any, len(ctx))
	maps.Copy(merged, derived.context)
	maps.Copy(merged, ctx)
	derived.context = merged
	return derived
}

// WithClassification returns a copy of err with its classification replaced.
//
// If err is not a PlatformError, it is converted to one with CodeUnknown.
// Returns nil if err is nil.
func WithClassification(err error, classification ErrorClassification) PlatformError {
	if err == nil {
		return nil
	}

	derived := derive(asPlatformError(err))
	derived.classification = classification
	return derived
}
