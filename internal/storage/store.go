package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

// Key prefixes. Uploads land under temp/ and move to invoices/ once the
// invoice is saved; the janitor only ever removes temp/ objects.
const (
	TempPrefix      = "temp/"
	PermanentPrefix = "invoices/"
)

// FileStore persists uploaded invoice PDFs.
type FileStore interface {
	// Save writes r under key.
	Save(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Promote moves a temp object to permanent storage and returns the new key.
	// Keys that are already permanent are returned unchanged.
	Promote(ctx context.Context, key string) (string, error)
	// LocalPath yields a filesystem path for key; release must be called.
	LocalPath(ctx context.Context, key string) (p string, release func(), err error)
}

// NewTempKey builds a unique temp key that keeps the original base name.
func NewTempKey(filename string) string {
	return TempPrefix + uuid.NewString() + "_" + SafeName(filename)
}

// IsTemp reports whether key still lives in temp storage.
func IsTemp(key string) bool { return strings.HasPrefix(key, TempPrefix) }

// PermanentKey maps a temp key to its permanent counterpart.
func PermanentKey(key string) string {
	return PermanentPrefix + strings.TrimPrefix(key, TempPrefix)
}

// SafeName strips directories and characters that are awkward in object keys.
func SafeName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		return "upload.pdf"
	}
	return name
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + key)[1:]
	if k == "" || k != strings.TrimPrefix(key, "/") {
		return "", common.NewAppError("INVALID_KEY", fmt.Sprintf("invalid storage key %q", key), common.ErrInvalidInput)
	}
	return k, nil
}

// New builds the configured backend.
func New(cfg common.StorageConfig) (FileStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.UploadDir)
	case "s3":
		return NewS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
