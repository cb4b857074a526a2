package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

// SheetName is the worksheet that holds the exported rows.
const SheetName = "Invoices"

// WriteXLSX writes one row per record with the canonical fields as columns.
// Records without a sequence number are numbered by their row position.
func WriteXLSX(w io.Writer, records []entity.LineRecord) error {
	f, err := workbook(records)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func workbook(records []entity.LineRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := constants.CanonicalFields()
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}

	for i, rec := range records {
		if rec.SNo == 0 {
			rec.SNo = i + 1
		}
		vals := rec.Row()
		row := make([]any, len(vals))
		for j, v := range vals {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(SheetName, "A", last, 16)
	_ = f.SetColWidth(SheetName, "F", "G", 32) // vendor, line item
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return f, nil
}

// Service exports persisted invoices.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// ExportInvoices writes the line records of every invoice matching filter
// and returns the number of rows written.
func (s *Service) ExportInvoices(ctx context.Context, filter repository.InvoiceFilter, w io.Writer) (int, error) {
	start := time.Now()
	invs, err := s.invoices.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	records := Records(invs)
	if err := WriteXLSX(w, records); err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		return 0, err
	}
	s.logger.Info("export.xlsx.ok",
		"invoices", len(invs),
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return len(records), nil
}

// Records flattens invoices into rows. An invoice without line items
// contributes its header record.
func Records(invs []*entity.Invoice) []entity.LineRecord {
	var out []entity.LineRecord
	for _, inv := range invs {
		if len(inv.LineItems) == 0 {
			out = append(out, inv.Header)
			continue
		}
		out = append(out, inv.LineItems...)
	}
	return out
}
