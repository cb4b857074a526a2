package extract

import (
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/validation"
)

// Reconciler expands a FieldSet into normalized line records.
type Reconciler struct {
	gstin  validation.GSTINValidator
	logger *slog.Logger
}

func NewReconciler(gstin validation.GSTINValidator, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{gstin: gstin, logger: logger}
}

// Expand emits max(1, len(set.Items)) records. For every canonical field an
// item's non-empty value wins over the header. Each record is then corrected
// on its own; TDS and Net_Payable stay blank and S_No stays unassigned.
func (r *Reconciler) Expand(set FieldSet, filename string) []entity.LineRecord {
	base := filepath.Base(filename)
	items := set.Items
	if len(items) == 0 {
		items = []map[string]string{nil}
	}

	out := make([]entity.LineRecord, 0, len(items))
	for i, item := range items {
		var rec entity.LineRecord
		for _, f := range constants.ExtractableFields() {
			v := item[f]
			if v == "" {
				v = set.Header[f]
			}
			rec.Set(f, v)
		}
		rec.Filename = base
		r.correct(&rec, base, i)
		out = append(out, rec)
	}
	return out
}

func (r *Reconciler) correct(rec *entity.LineRecord, filename string, idx int) {
	rec.InvoiceDate = validation.NormalizeDate(rec.InvoiceDate)
	rec.InvoiceNumber = validation.ValidateInvoiceNumber(rec.InvoiceNumber)
	rec.GSTNumber = r.gstin.CorrectAndValidate(rec.GSTNumber)
	rec.HSNSAC = validation.NormalizeHSN(rec.HSNSAC)

	checked, issues := validation.CheckAmounts(validation.Amounts{
		Basic:      rec.BasicAmount,
		CGST:       rec.CGSTAmount,
		SGST:       rec.SGSTAmount,
		IGST:       rec.IGSTAmount,
		Total:      rec.TotalAmount,
		GSTPercent: rec.GSTPercent,
	})
	for _, is := range issues {
		r.logger.Warn("extract.amount.dropped",
			"filename", filename,
			"row", idx+1,
			"field", string(is.Field),
			"value", is.Value,
			"reason", is.Reason,
		)
	}
	rec.BasicAmount = checked.Basic
	rec.TotalAmount = checked.Total
	rec.GSTPercent = checked.GSTPercent

	rec.TDS = ""
	rec.NetPayable = ""
}

// AssignSequence numbers records 1..n in order. It is applied when a batch
// is saved or exported, never during extraction.
func AssignSequence(records []entity.LineRecord) {
	for i := range records {
		records[i].SNo = i + 1
	}
}
