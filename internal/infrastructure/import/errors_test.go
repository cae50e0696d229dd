package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError(t *testing.T) {
	t.Run("Error with column", func(t *testing.T) {
		err := NewRowError(5, "status", ErrCodeImportMalformedRow, "no local status for PERDUE")
		assert.Equal(t, "row 5, column 'status': no local status for PERDUE", err.Error())
	})

	t.Run("Error without column", func(t *testing.T) {
		err := NewRowError(10, "", ErrCodeImportMalformedRow, "malformed row")
		assert.Equal(t, "row 10: malformed row", err.Error())
	})
}
