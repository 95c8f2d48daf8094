package errors

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeInvalidConfig, "bucket is required")

	require.NotNil(t, err)
	assert.Equal(t, CodeInvalidConfig, err.Code())
	assert.Equal(t, ClassificationPermanent, err.Classification())
	assert.Equal(t, "bucket is required", err.Message())
	assert.Nil(t, err.Context())
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "[INVALID_CONFIGURATION] bucket is required", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeInvalidInput, "unsupported flag %#x", 0x400)
	assert.Equal(t, "unsupported flag 0x400", err.Message())
}

func TestErrorClassification_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		code ErrorCode
		want bool
	}{
		{"network", CodeNetwork, true},
		{"timeout", CodeTimeout, true},
		{"rate limit", CodeRateLimit, true},
		{"unavailable", CodeUnavailable, true},
		{"not found", CodeNotFound, false},
		{"already exists", CodeAlreadyExists, false},
		{"storage", CodeStorage, false},
		{"unmapped", ErrorCode("SOMETHING_ELSE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, New(tt.code, "x").Classification().IsRetryable())
		})
	}
}

func TestWrap(t *testing.T) {
	cause := &fs.PathError{Op: "read", Path: "a.txt", Err: fs.ErrNotExist}
	err := Wrap(cause, CodeNotFound, "object not found")

	require.NotNil(t, err)
	assert.Equal(t, CodeNotFound, err.Code())
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "[NOT_FOUND] object not found: read a.txt: file does not exist", err.Error())
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeStorage, "noop"))
	assert.Nil(t, Wrapf(nil, CodeStorage, "noop %d", 1))
	assert.Nil(t, WrapWithContext(nil, CodeStorage, "noop", map[string]any{"a": 1}))
}

func TestWrap_PreservesClassification(t *testing.T) {
	original := New(CodeTimeout, "request timed out")
	wrapped := Wrap(original, CodeStorage, "read failed")

	assert.Equal(t, CodeStorage, wrapped.Code())
	assert.True(t, wrapped.Classification().IsRetryable())
}

func TestWrapWithContext_CopiesMap(t *testing.T) {
	ctx := map[string]any{"bucket": "b"}
	err := WrapWithContext(stderrors.New("boom"), CodeStorage, "write failed", ctx)
	ctx["bucket"] = "mutated"

	assert.Equal(t, "b", err.Context()["bucket"])
}

func TestWithContext(t *testing.T) {
	err := WithContext(New(CodeStorage, "write failed"), "key", "a.txt")
	err = WithContext(err, "bucket", "media")

	assert.Equal(t, CodeStorage, err.Code())
	assert.Equal(t, map[string]any{"key": "a.txt", "bucket": "media"}, err.Context())
}

func TestWithContext_StandardError(t *testing.T) {
	cause := stderrors.New("disk full")
	err := WithContext(cause, "key", "a.txt")

	assert.Equal(t, CodeUnknown, err.Code())
	assert.Equal(t, "disk full", err.Message())
	assert.True(t, stderrors.Is(err, cause))
}

func TestWithContextMap_Overrides(t *testing.T) {
	err := WithContextMap(New(CodeStorage, "x"), map[string]any{"key": "a", "attempt": 1})
	err = WithContextMap(err, map[string]any{"attempt": 2})

	assert.Equal(t, map[string]any{"key": "a", "attempt": 2}, err.Context())
}

func TestWithClassification(t *testing.T) {
	err := WithClassification(New(CodeStorage, "x"), ClassificationRetryable)
	assert.True(t, err.Classification().IsRetryable())
	assert.Nil(t, WithClassification(nil, ClassificationRetryable))
}

func TestContext_ReturnsCopy(t *testing.T) {
	err := WithContext(New(CodeStorage, "x"), "key", "a")
	ctx := err.Context()
	ctx["key"] = "b"

	assert.Equal(t, "a", err.Context()["key"])
}

func TestWithHelpers_LeaveOriginalUntouched(t *testing.T) {
	cause := &fs.PathError{Op: "read", Path: "a.txt", Err: fs.ErrNotExist}
	original := WrapWithContext(cause, CodeNotFound, "object not found", map[string]any{"key": "a.txt"})

	withBucket := WithContext(original, "bucket", "reports")
	retryable := WithClassification(withBucket, ClassificationRetryable)

	assert.Equal(t, map[string]any{"key": "a.txt"}, original.Context())
	assert.Equal(t, ClassificationPermanent, original.Classification())
	assert.Equal(t, ClassificationPermanent, withBucket.Classification())

	assert.Equal(t, map[string]any{"key": "a.txt", "bucket": "reports"}, retryable.Context())
	assert.Equal(t, CodeNotFound, retryable.Code())
	assert.Equal(t, "object not found", retryable.Message())
	assert.True(t, stderrors.Is(retryable, fs.ErrNotExist))
	assert.Equal(t, "[NOT_FOUND] object not found: read a.txt: file does not exist", retryable.Error())
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
	}{
		{"nil", nil, CodeUnknown, false},
		{"standard", stderrors.New("x"), CodeUnknown, false},
		{"platform", New(CodeNetwork, "x"), CodeNetwork, true},
		{"nested", Wrap(New(CodeRateLimit, "slow down"), CodeStorage, "put"), CodeStorage, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetCode(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestAs(t *testing.T) {
	err := Wrap(fs.ErrPermission, CodeForbidden, "access denied")

	var platformErr PlatformError
	require.True(t, As(err, &platformErr))
	assert.Equal(t, CodeForbidden, platformErr.Code())
	assert.True(t, Is(err, fs.ErrPermission))
}
