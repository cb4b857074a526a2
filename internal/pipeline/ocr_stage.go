package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/ocr"
)

// TextExtractor turns a local PDF into reconciled document text.
type TextExtractor interface {
	ExtractText(ctx context.Context, path, name string) (ocr.DocumentText, error)
}

// OCRStage opens a PDF and runs page-level text acquisition on it.
type OCRStage struct {
	Cfg      ocr.Config
	Runner   ocr.Runner
	Acquirer *ocr.Acquirer
	Logger   *slog.Logger
}

func NewOCRStage(cfg ocr.Config, runner ocr.Runner, acq *ocr.Acquirer, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.ExecRunner{Logger: logger}
	}
	if acq == nil {
		acq = ocr.NewAcquirer(logger)
	}
	return &OCRStage{Cfg: cfg, Runner: runner, Acquirer: acq, Logger: logger}
}

var _ TextExtractor = (*OCRStage)(nil)

func (s *OCRStage) ExtractText(ctx context.Context, path, name string) (ocr.DocumentText, error) {
	src, err := ocr.OpenPDF(path, s.Cfg, s.Runner, s.Logger)
	if err != nil {
		return ocr.DocumentText{}, common.ExtractionError("cannot read "+name, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			s.Logger.Warn("pipeline.ocr.close_failed", "document", name, "error", cerr)
		}
	}()
	return s.Acquirer.Acquire(ctx, src, name)
}
