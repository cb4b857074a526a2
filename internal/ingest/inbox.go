package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/internal/pipeline"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Inbox uploads PDFs dropped into a directory on behalf of one intake user.
// Handled files move to processed/ or failed/ under the root; a failure
// leaves a .err file next to the moved PDF.
type Inbox struct {
	uploader Uploader
	actorID  uuid.UUID
	root     string
	logger   *slog.Logger

	mu   sync.Mutex
	seen map[string]uuid.UUID // sha256 hex -> invoice id
}

func NewInbox(up Uploader, actorID uuid.UUID, root string, logger *slog.Logger) (*Inbox, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("inbox root: %w", err)
	}
	for _, d := range []string{ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(abs, d), 0o755); err != nil {
			return nil, fmt.Errorf("inbox %s dir: %w", d, err)
		}
	}
	return &Inbox{
		uploader: up,
		actorID:  actorID,
		root:     abs,
		logger:   logger,
		seen:     map[string]uuid.UUID{},
	}, nil
}

// Root is the watched directory.
func (i *Inbox) Root() string { return i.root }

func (i *Inbox) excluded(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return abs == filepath.Join(i.root, ProcessedDir) || abs == filepath.Join(i.root, FailedDir)
}

// IngestPath uploads one file. Content already uploaded by this inbox is
// skipped and moved to processed/.
func (i *Inbox) IngestPath(ctx context.Context, path string) (Result, error) {
	out := Result{SourcePath: path, IngestedAt: time.Now().UTC()}
	data, err := os.ReadFile(path)
	if err != nil {
		out.Err = err.Error()
		return out, err
	}
	sum := sha256.Sum256(data)
	out.HashHex = hex.EncodeToString(sum[:])
	log := i.logger.With("path", path, "sha256", out.HashHex[:12])

	i.mu.Lock()
	prev, dup := i.seen[out.HashHex]
	i.mu.Unlock()
	if dup {
		out.InvoiceID = prev
		out.Deduplicated = true
		log.Info("ingest.duplicate", "invoice_id", prev)
		i.move(path, ProcessedDir, nil)
		return out, nil
	}

	inv, err := i.uploader.Upload(ctx, i.actorID, pipeline.UploadRequest{
		Filename: filepath.Base(path),
		Data:     data,
	})
	if err != nil {
		out.Err = err.Error()
		log.Warn("ingest.upload.failed", "error", err)
		i.move(path, FailedDir, err)
		return out, err
	}

	i.mu.Lock()
	i.seen[out.HashHex] = inv.ID
	i.mu.Unlock()
	out.InvoiceID = inv.ID
	log.Info("ingest.upload.ok", "invoice_id", inv.ID)
	i.move(path, ProcessedDir, nil)
	return out, nil
}

// Run ingests paths from events until the channel closes or ctx ends.
func (i *Inbox) Run(ctx context.Context, events <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			if i.excluded(filepath.Dir(path)) {
				continue
			}
			if _, err := i.IngestPath(ctx, path); errors.Is(err, fs.ErrNotExist) {
				// moved away before we got to it
				i.logger.Debug("ingest.vanished", "path", path)
			}
		}
	}
}

func (i *Inbox) move(path, dir string, cause error) {
	dst := filepath.Join(i.root, dir, filepath.Base(path))
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(dst)
		dst = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(dst, ext), time.Now().UnixNano(), ext)
	}
	if err := os.Rename(path, dst); err != nil {
		i.logger.Warn("ingest.move.failed", "path", path, "dst", dst, "error", err)
		return
	}
	if cause != nil {
		if err := os.WriteFile(dst+".err", []byte(cause.Error()+"\n"), 0o644); err != nil {
			i.logger.Warn("ingest.errfile.failed", "path", dst, "error", err)
		}
	}
}

// Watch ingests files already in the inbox and then every file that
// arrives, until ctx ends.
func (i *Inbox) Watch(ctx context.Context, debounce time.Duration) error {
	events, errs, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{i.root},
		InitialScan: true,
		Debounce:    debounce,
		Skip:        i.excluded,
	}, i.logger)
	if err != nil {
		return err
	}
	go func() {
		for range errs {
		}
	}()
	i.logger.Info("ingest.watch.started", "root", i.root)
	i.Run(ctx, events)
	return nil
}
