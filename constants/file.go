package constants

import "strings"

// PDFMimeType is the only MIME type accepted for uploads.
const PDFMimeType = "application/pdf"

// DefaultMaxUploadBytes caps a single upload (16 MiB).
const DefaultMaxUploadBytes int64 = 16 << 20

// AllowedExtensions holds the file extensions accepted for invoice ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) may be ingested.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
