package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/export"
	"github.com/joseph-ayodele/invoice-tracker/internal/extract"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-tracker/internal/notify"
	"github.com/joseph-ayodele/invoice-tracker/internal/ocr"
	"github.com/joseph-ayodele/invoice-tracker/internal/pipeline"
	"github.com/joseph-ayodele/invoice-tracker/internal/profiles"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
	"github.com/joseph-ayodele/invoice-tracker/internal/storage"
	"github.com/joseph-ayodele/invoice-tracker/internal/validation"
	"github.com/joseph-ayodele/invoice-tracker/internal/workflow"
)

// App holds the wired services shared by the binaries.
type App struct {
	Config *common.Config
	Logger *slog.Logger

	DB            *repository.DB
	Files         storage.FileStore
	Users         repository.UserRepository
	Invoices      repository.InvoiceRepository
	Audit         repository.AuditRepository
	Notifications repository.NotificationRepository

	Processor *pipeline.Processor
	Workflow  *workflow.Service
	Profiles  *profiles.Service
	Export    *export.Service

	closers []func()
}

// New opens the database, ensures the schema, and wires every service from cfg.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	if err := db.EnsureSchema(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	files, err := storage.New(cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.Files = files
	if dir := cfg.Storage.ArtifactDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			a.Close()
			return nil, fmt.Errorf("artifact dir: %w", err)
		}
	}

	a.Users = repository.NewUserRepository(db, logger)
	a.Invoices = repository.NewInvoiceRepository(db, logger)
	a.Audit = repository.NewAuditRepository(db, logger)
	a.Notifications = repository.NewNotificationRepository(db, logger)

	a.Processor = pipeline.NewProcessor(pipeline.Config{
		MaxUploadBytes:    cfg.Storage.MaxUploadBytes,
		ProcessingTimeout: cfg.LLM.ProcessingTimeout,
	}, pipeline.Deps{
		Text:     NewTextStage(cfg, logger),
		Parse:    NewParseStage(cfg, logger),
		Files:    files,
		Tx:       db,
		Invoices: a.Invoices,
		Audit:    a.Audit,
		Users:    a.Users,
	}, logger)

	a.Workflow = workflow.NewService(workflow.Deps{
		Tx:       db,
		Invoices: a.Invoices,
		Audit:    a.Audit,
		Users:    a.Users,
		Files:    files,
		Notifier: a.notifier(),
	}, logger)
	a.Profiles = profiles.NewService(db, a.Users, logger)
	a.Export = export.NewService(a.Invoices, logger)
	return a, nil
}

// notifier stores in-app notifications and, when NATS_URL is set, publishes
// them as events. A NATS connection failure disables only the publisher.
func (a *App) notifier() notify.Notifier {
	targets := []notify.Notifier{notify.NewStoreNotifier(a.Notifications)}
	if url := a.Config.Notify.NATSURL; url != "" {
		nc, err := notify.ConnectNATS(url, a.Logger)
		if err != nil {
			a.Logger.Warn("app.nats.connect_failed", "url", url, "error", err)
		} else {
			a.closers = append(a.closers, nc.Close)
			targets = append(targets, notify.NewNATSPublisher(nc, a.Config.Notify.SubjectPrefix, a.Logger))
		}
	}
	return notify.NewMulti(a.Logger, targets...)
}

// NewTextStage builds text acquisition from the OCR settings. Reconciled
// text is kept under ARTIFACT_DIR/text.
func NewTextStage(cfg *common.Config, logger *slog.Logger) *pipeline.OCRStage {
	ocrCfg := ocr.Config{
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Tesseract:   cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		Zoom:        cfg.OCR.Zoom,
		DisableOCR:  !cfg.OCR.Enabled,
		WorkDir:     cfg.Storage.ArtifactDir,
	}
	opts := []ocr.AcquirerOption{ocr.WithPageWorkers(cfg.OCR.PageWorkers)}
	if cfg.Storage.ArtifactDir != "" {
		opts = append(opts, ocr.WithTextSink(ocr.DirTextSink{Dir: filepath.Join(cfg.Storage.ArtifactDir, "text")}))
	}
	return pipeline.NewOCRStage(ocrCfg, ocr.ExecRunner{Logger: logger}, ocr.NewAcquirer(logger, opts...), logger)
}

// NewParseStage builds field extraction. With the LLM disabled every
// document goes to manual review.
func NewParseStage(cfg *common.Config, logger *slog.Logger) *pipeline.ParseStage {
	var fe llm.FieldExtractor
	if cfg.LLM.Enabled {
		fe = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
			OrgIdentity: cfg.Workflow.OrgTaxIdentity,
		}, logger)
		logger.Info("app.llm.enabled", "model", cfg.LLM.Model)
	} else {
		logger.Warn("app.llm.disabled", "mode", "manual_review")
	}
	rec := extract.NewReconciler(validation.NewGSTINValidator(cfg.Workflow.OrgTaxIdentity), logger)
	return pipeline.NewParseStage(logger, fe, rec)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
