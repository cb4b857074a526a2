package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/extract"
	"github.com/joseph-ayodele/invoice-tracker/internal/ocr"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
	"github.com/joseph-ayodele/invoice-tracker/internal/storage"
)

// TxRunner runs fn in one transaction. *repository.DB satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config bounds the processor.
type Config struct {
	MaxUploadBytes    int64
	ProcessingTimeout time.Duration // default 5m
}

// Deps are the collaborators of Processor. Tx and the repositories are only
// needed for Upload.
type Deps struct {
	Text     TextExtractor
	Parse    *ParseStage
	Files    storage.FileStore
	Tx       TxRunner
	Invoices repository.InvoiceRepository
	Audit    repository.AuditRepository
	Users    repository.UserRepository
}

// Processor coordinates text acquisition then field extraction, and for
// uploads persists the result as an extracted invoice.
type Processor struct {
	cfg      Config
	text     TextExtractor
	parse    *ParseStage
	files    storage.FileStore
	tx       TxRunner
	invoices repository.InvoiceRepository
	audit    repository.AuditRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewProcessor(cfg Config, deps Deps, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = 5 * time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = constants.DefaultMaxUploadBytes
	}
	return &Processor{
		cfg:      cfg,
		text:     deps.Text,
		parse:    deps.Parse,
		files:    deps.Files,
		tx:       deps.Tx,
		invoices: deps.Invoices,
		audit:    deps.Audit,
		users:    deps.Users,
		logger:   logger,
	}
}

// Result is everything extracted from one document.
type Result struct {
	Document ocr.DocumentText
	Fields   FieldResult
}

// ProcessFile extracts a local PDF within the processing timeout. A page
// failure or a model transport failure aborts the document.
func (p *Processor) ProcessFile(ctx context.Context, path, filename string) (Result, error) {
	start := time.Now()
	ctx, cancel := common.WithTimeout(ctx, p.cfg.ProcessingTimeout)
	defer cancel()

	doc, err := p.text.ExtractText(ctx, path, filename)
	if err != nil {
		return Result{}, p.timeoutOr(ctx, filename, err)
	}
	fields, err := p.parse.Run(ctx, doc.Text(), filename)
	if err != nil {
		return Result{}, p.timeoutOr(ctx, filename, err)
	}

	p.logger.Info("pipeline.process.ok",
		"filename", filename,
		"pages", doc.PageCount(),
		"used_ocr", doc.UsedOCR(),
		"records", len(fields.Records),
		"method", fields.Method,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Document: doc, Fields: fields}, nil
}

func (p *Processor) timeoutOr(ctx context.Context, filename string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		p.logger.Error("pipeline.process.timeout", "filename", filename, "timeout", p.cfg.ProcessingTimeout)
		return common.ExtractionError("processing timed out after "+p.cfg.ProcessingTimeout.String(), err)
	}
	if errors.Is(err, common.ErrExtraction) {
		return err
	}
	return common.ExtractionError("processing failed for "+filename, err)
}

// UploadRequest is one uploaded file. DepartmentID defaults to the
// uploader's department.
type UploadRequest struct {
	Filename     string
	Data         []byte
	DepartmentID uuid.NullUUID
}

// Upload validates, stores, and extracts a PDF, then records it as an
// extracted, unsaved invoice with an "uploaded" audit entry. Nothing is
// left behind when any step fails.
func (p *Processor) Upload(ctx context.Context, actorID uuid.UUID, req UploadRequest) (*entity.Invoice, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	log := p.logger.With("request_id", rid, "actor_id", actorID, "filename", req.Filename)

	if err := ValidateUpload(req.Filename, req.Data, p.cfg.MaxUploadBytes); err != nil {
		log.Warn("pipeline.upload.rejected", "error", err)
		return nil, err
	}
	actor, dept, err := p.uploader(ctx, actorID, req.DepartmentID)
	if err != nil {
		log.Warn("pipeline.upload.denied", "error", err)
		return nil, err
	}

	name := storage.SafeName(req.Filename)
	key := storage.NewTempKey(name)
	if err := p.files.Save(ctx, key, bytes.NewReader(req.Data)); err != nil {
		log.Error("pipeline.upload.store_failed", "error", err)
		return nil, common.PersistenceError("store upload", err)
	}
	discard := func() {
		if err := p.files.Delete(context.WithoutCancel(ctx), key); err != nil {
			log.Warn("pipeline.upload.cleanup_failed", "key", key, "error", err)
		}
	}

	local, release, err := p.files.LocalPath(ctx, key)
	if err != nil {
		discard()
		return nil, common.PersistenceError("read upload", err)
	}
	res, err := p.ProcessFile(ctx, local, name)
	release()
	if err != nil {
		discard()
		log.Error("pipeline.upload.extract_failed", "error", err)
		return nil, err
	}

	inv := newInvoice(res, actor.ID, dept, key)
	err = p.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := p.invoices.Create(ctx, inv); err != nil {
			return err
		}
		rec := entity.NewAuditRecord(time.Now(), actor.ID, inv.ID, constants.AuditUploaded, "Uploaded file: "+name, nil, inv.Snapshot())
		return p.audit.Append(ctx, rec)
	})
	if err != nil {
		discard()
		log.Error("pipeline.upload.persist_failed", "error", err)
		return nil, err
	}

	log.Info("pipeline.upload.ok", "invoice_id", inv.ID, "records", len(inv.LineItems), "used_ocr", inv.UsedOCR)
	return inv, nil
}

// uploader checks the actor may upload into the requested department.
func (p *Processor) uploader(ctx context.Context, actorID uuid.UUID, dept uuid.NullUUID) (*entity.User, uuid.NullUUID, error) {
	u, err := p.users.Get(ctx, actorID)
	if err != nil || !u.IsActive {
		return nil, dept, common.Deny(common.DenyInactiveUser, "Invalid or inactive user")
	}
	caps := u.Can()
	if !caps.CanUpload && !caps.IsFinance {
		return nil, dept, common.Deny(common.DenyWrongRole, "Your role cannot upload invoices")
	}
	if !dept.Valid {
		dept = u.DepartmentID
	}
	if !dept.Valid {
		return nil, dept, common.ValidationErrorf("department_id is required")
	}
	if !caps.IsSuperAdmin && !caps.IsFinance && u.DepartmentID != dept {
		return nil, dept, common.Deny(common.DenyWrongDepartment, "Cannot upload invoice to another department")
	}
	return u, dept, nil
}

func newInvoice(res Result, uploader uuid.UUID, dept uuid.NullUUID, key string) *entity.Invoice {
	items := append([]entity.LineRecord(nil), res.Fields.Records...)
	extract.AssignSequence(items)
	var header entity.LineRecord
	if len(items) > 0 {
		header = items[0]
	}
	return &entity.Invoice{
		Header:           header,
		LineItems:        items,
		FilePath:         key,
		UploadedBy:       uploader,
		DepartmentID:     dept,
		Status:           constants.StatusExtracted,
		Priority:         constants.DefaultPriority,
		RawText:          res.Document.Text(),
		RawExtraction:    res.Fields.Raw.JSON(),
		ExtractionMethod: res.Fields.Method,
		UsedOCR:          res.Document.UsedOCR(),
	}
}

func baseName(name string) string {
	return filepath.Base(filepath.ToSlash(name))
}
