// Package validation checks uploaded files before they reach the reader.
package validation

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// xlsx files are zip archives; the first four bytes identify them.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// UploadValidator validates uploaded workbook files by extension and
// content sniffing, so a renamed text file fails fast instead of deep in
// the reader.
type UploadValidator struct {
	logger            *slog.Logger
	allowedExtensions map[string]bool
}

// NewUploadValidator creates a validator accepting the given extensions
// (with leading dot, lowercase). Defaults to .xlsx and .xlsm.
func NewUploadValidator(logger *slog.Logger, extensions ...string) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if len(extensions) == 0 {
		extensions = []string{".xlsx", ".xlsm"}
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}
	return &UploadValidator{
		logger:            logger.With(slog.String("component", "upload_validator")),
		allowedExtensions: allowed,
	}
}

// ValidateFilename checks the file extension.
func (v *UploadValidator) ValidateFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !v.allowedExtensions[ext] {
		v.logger.Warn("rejected upload by extension",
			slog.String("filename", filename),
			slog.String("extension", ext))
		return fmt.Errorf("unsupported file extension %q, expected .xlsx", ext)
	}
	return nil
}

// ValidateContent checks that the leading bytes look like a zip archive.
// Pass at least the first four bytes of the file.
func (v *UploadValidator) ValidateContent(head []byte) error {
	if len(head) < len(zipMagic) || !bytes.Equal(head[:len(zipMagic)], zipMagic) {
		v.logger.Warn("rejected upload by content",
			slog.Int("bytes_seen", len(head)))
		return fmt.Errorf("file content is not a valid workbook")
	}
	return nil
}
