package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/extract"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
)

// ManualReviewVendor marks invoices stored without model extraction.
const ManualReviewVendor = "Manual Review Required"

// FieldResult is the outcome of the parse stage for one document.
type FieldResult struct {
	Records []entity.LineRecord
	Raw     llm.RawExtraction
	Method  constants.ExtractionMethod
}

// ParseStage asks the model for canonical fields and expands the answer
// into corrected line records.
type ParseStage struct {
	Logger     *slog.Logger
	Extractor  llm.FieldExtractor
	Reconciler *extract.Reconciler
}

// NewParseStage builds the stage. A nil extractor puts it in manual-review
// mode: every document yields one placeholder record.
func NewParseStage(logger *slog.Logger, fe llm.FieldExtractor, rec *extract.Reconciler) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Logger: logger, Extractor: fe, Reconciler: rec}
}

// Run extracts fields from text. Transport errors are returned; malformed
// model output has already degraded to an empty extraction.
func (p *ParseStage) Run(ctx context.Context, text, filename string) (FieldResult, error) {
	if p.Extractor == nil {
		p.Logger.Info("pipeline.parse.manual_review", "filename", filename)
		rec := entity.LineRecord{VendorName: ManualReviewVendor}
		rec.Filename = baseName(filename)
		return FieldResult{
			Records: []entity.LineRecord{rec},
			Raw:     llm.RawExtraction{Header: map[string]string{}},
			Method:  constants.ExtractionManualReview,
		}, nil
	}

	start := time.Now()
	raw, err := p.Extractor.Extract(ctx, constants.ExtractableFields(), text)
	if err != nil {
		p.Logger.Error("pipeline.parse.failed", "filename", filename, "error", err)
		return FieldResult{}, err
	}
	if raw.Empty() {
		p.Logger.Warn("pipeline.parse.empty", "filename", filename)
	}

	records := p.Reconciler.Expand(extract.FromRaw(raw), filename)
	p.Logger.Info("pipeline.parse.ok",
		"filename", filename,
		"header_fields", len(raw.Header),
		"line_items", len(raw.LineItems),
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return FieldResult{Records: records, Raw: raw, Method: constants.ExtractionOpenAI}, nil
}
