package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

// Acquirer turns a PageSource into a DocumentText.
type Acquirer struct {
	workers int
	sink    TextSink
	logger  *slog.Logger
}

type AcquirerOption func(*Acquirer)

// WithPageWorkers bounds how many pages are processed at once.
func WithPageWorkers(n int) AcquirerOption {
	return func(a *Acquirer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithTextSink persists every reconciled document.
func WithTextSink(s TextSink) AcquirerOption {
	return func(a *Acquirer) { a.sink = s }
}

func NewAcquirer(logger *slog.Logger, opts ...AcquirerOption) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Acquirer{workers: 1, logger: logger}
	for _, o := range opts {
		o(a)
	}
	return a
}

// PreferOCR reports whether OCR text should replace the native text layer:
// only when it has more characters once surrounding whitespace is trimmed.
func PreferOCR(native, ocrText string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(ocrText)) > utf8.RuneCountInString(strings.TrimSpace(native))
}

// Acquire reads every page of src. Any page failure aborts the whole document.
// name identifies the document for the text sink.
func (a *Acquirer) Acquire(ctx context.Context, src PageSource, name string) (DocumentText, error) {
	start := time.Now()
	n := src.PageCount()
	if n <= 0 {
		return DocumentText{}, common.ExtractionError("document has no pages", nil)
	}
	a.logger.Info("ocr.acquire.start", "document", name, "pages", n, "workers", a.workers)

	pages := make([]PageText, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := 0; i < n; i++ {
		page := i + 1
		g.Go(func() error {
			native, ocrText, err := src.RenderAndExtract(gctx, page)
			if err != nil {
				return err
			}
			pt := PageText{Number: page, Text: native, Provenance: constants.ProvenanceNative}
			if PreferOCR(native, ocrText) {
				pt.Text = ocrText
				pt.Provenance = constants.ProvenanceOCRRecovered
			}
			pages[page-1] = pt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.logger.Error("ocr.acquire.failed", "document", name, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return DocumentText{}, common.ExtractionError("text acquisition failed for "+name, err)
	}

	doc := NewDocumentText(pages)
	if a.sink != nil {
		if loc, err := a.sink.Save(ctx, name, doc.Text()); err != nil {
			a.logger.Warn("ocr.acquire.text_persist_failed", "document", name, "error", err)
		} else {
			a.logger.Debug("ocr.acquire.text_persisted", "document", name, "location", loc)
		}
	}

	a.logger.Info("ocr.acquire.ok",
		"document", name,
		"pages", n,
		"used_ocr", doc.UsedOCR(),
		"text_len", len(doc.Text()),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}
