package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextSink stores reconciled document text for traceability.
type TextSink interface {
	Save(ctx context.Context, name, text string) (location string, err error)
}

// DirTextSink writes <Dir>/<base name>.txt, overwriting earlier runs.
type DirTextSink struct {
	Dir string
}

func (s DirTextSink) Save(_ context.Context, name, text string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create text dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "document"
	}
	out := filepath.Join(s.Dir, base+".txt")
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write text: %w", err)
	}
	return out, nil
}
