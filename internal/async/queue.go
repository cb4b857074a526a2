package async

import (
	"context"
	"time"
)

// Job is one document waiting for extraction.
type Job struct {
	Path        string // local file
	Name        string // display name; defaults to the base of Path
	Seq         int    // submission order, for callers that reassemble results
	SubmittedAt time.Time
	TraceID     string
}

// Handler processes one job. Its error is logged by the queue.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
