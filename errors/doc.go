// Package errors provides structured errors for storage backends.
//
// Backends translate driver failures (MinIO, S3, Redis, PostgreSQL, local
// disk) into PlatformError values carrying an error code, a retry
// classification and optional context. The original cause stays in the chain,
// so the core sentinels keep working with errors.Is:
//
//	err := errors.Wrap(core.ErrNotFound, errors.CodeNotFound, "object not found")
//	stderrors.Is(err, core.ErrNotFound) // true
//	errors.GetCode(err)                 // CodeNotFound
//
// # Classification
//
// Every code has a default classification. Network, timeout, rate limit and
// availability failures are retryable; everything else is permanent. The
// classification survives wrapping and can be overridden with
// WithClassification.
//
//	if errors.IsRetryable(err) {
//	    // back off and try again
//	}
//
// # Context
//
// Attach debugging context such as the key or bucket:
//
//	err = errors.WithContext(err, "key", key)
package errors
