package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	err := NewExternalError("wikipedia search failed", io.ErrUnexpectedEOF)

	assert.Equal(t, "EXTERNAL: wikipedia search failed: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "VALIDATION: bad", NewValidationError("bad").Error())
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("predict: %w", NewInvalidImageError(io.EOF))

	assert.Equal(t, ErrorTypeInvalidImage, TypeOf(wrapped))
	assert.True(t, Is(wrapped, ErrorTypeInvalidImage))
	assert.False(t, Is(wrapped, ErrorTypeNotFound))
	assert.Equal(t, ErrorTypeInternal, TypeOf(io.EOF))
}
