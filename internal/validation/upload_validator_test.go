package validation

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "margincli/internal/errors"
)

func newTestValidator(maxSize int64) *UploadValidator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUploadValidator(logger, maxSize)
}

func TestValidateUploadAccepted(t *testing.T) {
	v := newTestValidator(1 << 20)
	head := []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00}

	assert.NoError(t, v.ValidateUpload("orders.xlsx", 1024, head))
	assert.NoError(t, v.ValidateUpload("income export.XLSX", 1024, head))
}

func TestValidateUploadRejections(t *testing.T) {
	v := newTestValidator(100)
	head := []byte{0x50, 0x4B, 0x03, 0x04}

	tests := []struct {
		name     string
		filename string
		size     int64
		head     []byte
	}{
		{"empty name", "", 10, head},
		{"lock file", "~$orders.xlsx", 10, head},
		{"wrong extension", "orders.csv", 10, head},
		{"no extension", "orders", 10, head},
		{"empty file", "orders.xlsx", 0, head},
		{"too large", "orders.xlsx", 101, head},
		{"not a zip", "orders.xlsx", 10, []byte("PK is not here")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateUpload(tc.filename, tc.size, tc.head)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
		})
	}
}

func TestValidateUploadShortHead(t *testing.T) {
	v := newTestValidator(0)

	// Fewer bytes than the zip signature cannot be judged, the parser
	// will reject the content instead.
	assert.NoError(t, v.ValidateUpload("orders.xlsx", 10, []byte{0x50}))
}
