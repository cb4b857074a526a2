package pipeline

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

// ValidateUpload rejects anything that is not a readable PDF within the
// size limit. It runs before anything is stored.
func ValidateUpload(filename string, data []byte, maxBytes int64) error {
	if strings.TrimSpace(filename) == "" {
		return common.FileValidationError("No file provided")
	}
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxUploadBytes
	}
	size := int64(len(data))
	if size == 0 {
		return common.FileValidationError("Empty file")
	}
	if size > maxBytes {
		return common.FileValidationError(fmt.Sprintf("File too large. Maximum size: %d bytes", maxBytes))
	}
	if !constants.IsAllowedExt(filepath.Ext(filename)) {
		return common.FileValidationError("Invalid file type. Only PDF files are allowed.")
	}
	if mt := mimetype.Detect(data); !mt.Is(constants.PDFMimeType) {
		return common.FileValidationError("Invalid file type. Expected PDF, got " + mt.String())
	}
	if !readablePDF(data) {
		return common.FileValidationError("Invalid PDF file. File appears to be corrupted or not a valid PDF.")
	}
	return nil
}

// readablePDF reports whether the PDF parser accepts data and finds pages.
func readablePDF(data []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	return r.NumPage() > 0
}
