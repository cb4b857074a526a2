package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/pipeline"
)

// Uploader is the upload entry point. *pipeline.Processor satisfies it.
type Uploader interface {
	Upload(ctx context.Context, actorID uuid.UUID, req pipeline.UploadRequest) (*entity.Invoice, error)
}

// Result is the per-file ingest outcome.
type Result struct {
	SourcePath   string
	InvoiceID    uuid.UUID
	Deduplicated bool
	HashHex      string
	IngestedAt   time.Time
	Err          string
}

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}
