package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorFormatting(t *testing.T) {
	err := New(ErrCodeInvalidInput, "group name is required")
	assert.Equal(t, "INVALID_INPUT: group name is required", err.Error())

	wrapped := Wrap(fmt.Errorf("disk full"), ErrCodeDatabaseQuery, "insert failed")
	assert.Equal(t, "DATABASE_QUERY: insert failed: disk full", wrapped.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(cause, ErrCodeStorageAPI, "upload failed")
	assert.ErrorIs(t, err, cause)
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeNoTranscript, GetCode(New(ErrCodeNoTranscript, "x")))
	assert.Equal(t, ErrCodeInternalError, GetCode(errors.New("plain")))
}

func TestGetUserMessage(t *testing.T) {
	err := New(ErrCodeCorruptArchive, "zip parse failed").
		WithUserMessage("The uploaded archive could not be read")
	assert.Equal(t, "The uploaded archive could not be read", GetUserMessage(err))
	assert.Equal(t, "An internal error occurred", GetUserMessage(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(WrapRetryable(errors.New("timeout"), ErrCodeEmbeddingAPI, "embed failed")))
	assert.False(t, IsRetryable(New(ErrCodeInvalidInput, "bad")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWithField(t *testing.T) {
	err := New(ErrCodeStorageAPI, "upload failed").
		WithField("bucket", "media").
		WithField("file", "photo.jpg")
	assert.Equal(t, "media", err.Fields["bucket"])
	assert.Equal(t, "photo.jpg", err.Fields["file"])
}
