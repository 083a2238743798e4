package analysis

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("upload: %w", ErrUploadFailed("a.pdf", cause))

	assert.Equal(t, KindUploadFailed, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Empty file: a.png", ErrEmptyFile("a.png").Error())
	assert.Equal(t, "Too many files. Max allowed: 10.", ErrBatchTooLarge(10).Error())
	assert.Contains(t, ErrConversionFailed("memo.docx", errors.New("exit status 1")).Error(), "memo.docx")
}

func TestWithTrace(t *testing.T) {
	assert.NoError(t, WithTrace("abc", nil))

	base := ErrInvalidImage("bad.png", errors.New("unknown format"))
	err := WithTrace("abc12345", base)
	require.Error(t, err)

	assert.Equal(t, "abc12345", TraceIDOf(err))
	assert.Equal(t, KindInvalidImage, KindOf(err))
	assert.Contains(t, err.Error(), "[abc12345]")

	again := WithTrace("abc12345", err)
	assert.Same(t, err, again)
	assert.Equal(t, "", TraceIDOf(base))
}
