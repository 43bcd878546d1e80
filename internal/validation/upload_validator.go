// Package validation checks uploaded marketplace extracts before parsing.
package validation

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"

	apperrors "margincli/internal/errors"
)

// xlsx files are zip containers, so a valid upload starts with the zip
// local file header.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// UploadValidator rejects malformed spreadsheet uploads early, before
// the workbook parser sees them.
type UploadValidator struct {
	logger  *slog.Logger
	maxSize int64
}

// NewUploadValidator creates a validator enforcing the given size cap.
func NewUploadValidator(logger *slog.Logger, maxSize int64) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{logger: logger, maxSize: maxSize}
}

// ValidateUpload checks the filename, declared size, and leading bytes
// of an uploaded file. All failures are validation errors.
func (v *UploadValidator) ValidateUpload(filename string, size int64, head []byte) error {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." {
		return apperrors.NewAppValidationError("uploaded file has no name")
	}
	if strings.HasPrefix(name, "~$") {
		return apperrors.NewAppValidationError("file looks like an Excel temporary lock file")
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".xlsx" {
		v.logger.Warn("rejected upload with unsupported extension",
			slog.String("filename", name),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError("only .xlsx files are accepted")
	}

	if size == 0 {
		return apperrors.NewAppValidationError("uploaded file is empty")
	}
	if v.maxSize > 0 && size > v.maxSize {
		return apperrors.NewAppValidationError("uploaded file exceeds the size limit")
	}

	if len(head) >= len(zipMagic) && !bytes.HasPrefix(head, zipMagic) {
		v.logger.Warn("rejected upload without xlsx signature",
			slog.String("filename", name))
		return apperrors.NewAppValidationError("file content is not a valid .xlsx workbook")
	}

	return nil
}
