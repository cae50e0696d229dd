package shared

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewConfigurationError("export directory %q does not exist", "/tmp/missing")

	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(err, ErrIO))
	assert.Equal(t, `export directory "/tmp/missing" does not exist`, err.Error())
}

func TestDomainError_Unwrap(t *testing.T) {
	err := NewIOError("cannot open status file", os.ErrNotExist)

	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "cannot open status file: ")
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("export failed: %w", NewNotFoundError("order %d", 12))

	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, CodeValidation, CodeOf(NewValidationError("bad")))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}
