package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// InvoiceFilter narrows List. Zero values match everything.
type InvoiceFilter struct {
	Statuses     []constants.InvoiceStatus
	DepartmentID uuid.NullUUID
	UploadedBy   uuid.NullUUID
	SavedOnly    bool
	From, To     *time.Time
	Limit        int
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	Update(ctx context.Context, inv *entity.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f InvoiceFilter) ([]*entity.Invoice, error)
	ListAbandoned(ctx context.Context, cutoff time.Time) ([]*entity.Invoice, error)
	DeleteAbandoned(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error)
	CountByStatus(ctx context.Context) (map[constants.InvoiceStatus]int, error)
}

type invoiceRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewInvoiceRepository(db *DB, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepository{db: db, logger: logger}
}

// invoiceColumns is the single source of column order for insert and select.
var invoiceColumns = []string{
	"id", "s_no", "invoice_date", "invoice_number", "po_number", "gst_number", "vendor_name",
	"line_item", "hsn_sac", "gst_percent", "igst_amount", "cgst_amount", "sgst_amount",
	"basic_amount", "total_amount", "tds", "net_payable", "filename",
	"file_path", "remarks", "selected_line_items", "uploaded_by", "department_id",
	"status", "priority", "is_saved", "approved_by", "submitted_at", "approved_at",
	"approval_remarks", "rejection_remarks", "payment_status", "amount_paid", "paid_at",
	"raw_text", "raw_extraction", "extraction_method", "used_ocr", "created_at", "updated_at",
}

var invoiceSelect = "SELECT " + strings.Join(invoiceColumns, ", ") + " FROM invoices"

func invoiceArgs(inv *entity.Invoice) []any {
	h := inv.Header
	items, _ := json.Marshal(inv.LineItems)
	if inv.LineItems == nil {
		items = []byte("[]")
	}
	var amountPaid any
	if inv.AmountPaid.Valid {
		amountPaid = inv.AmountPaid.Decimal.StringFixed(2)
	}
	return []any{
		inv.ID, h.SNo, h.InvoiceDate, h.InvoiceNumber, h.PONumber, h.GSTNumber, h.VendorName,
		h.LineItem, h.HSNSAC, h.GSTPercent, h.IGSTAmount, h.CGSTAmount, h.SGSTAmount,
		h.BasicAmount, h.TotalAmount, h.TDS, h.NetPayable, h.Filename,
		inv.FilePath, inv.Remarks, string(items), inv.UploadedBy, inv.DepartmentID,
		string(inv.Status), string(inv.Priority), inv.IsSaved, inv.ApprovedBy, timeArg(inv.SubmittedAt), timeArg(inv.ApprovedAt),
		inv.ApprovalRemarks, inv.RejectionRemarks, string(inv.PaymentStatus), amountPaid, timeArg(inv.PaidAt),
		inv.RawText, jsonArg(inv.RawExtraction), string(inv.ExtractionMethod), inv.UsedOCR, inv.CreatedAt.UTC(), inv.UpdatedAt.UTC(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(rs rowScanner) (*entity.Invoice, error) {
	var (
		inv                       entity.Invoice
		items, rawExtraction      sql.NullString
		status, priority, payment string
		method                    string
		amountPaid                decimal.NullDecimal
		submitted, approved, paid nullTime
		created, updated          nullTime
	)
	h := &inv.Header
	err := rs.Scan(
		&inv.ID, &h.SNo, &h.InvoiceDate, &h.InvoiceNumber, &h.PONumber, &h.GSTNumber, &h.VendorName,
		&h.LineItem, &h.HSNSAC, &h.GSTPercent, &h.IGSTAmount, &h.CGSTAmount, &h.SGSTAmount,
		&h.BasicAmount, &h.TotalAmount, &h.TDS, &h.NetPayable, &h.Filename,
		&inv.FilePath, &inv.Remarks, &items, &inv.UploadedBy, &inv.DepartmentID,
		&status, &priority, &inv.IsSaved, &inv.ApprovedBy, &submitted, &approved,
		&inv.ApprovalRemarks, &inv.RejectionRemarks, &payment, &amountPaid, &paid,
		&inv.RawText, &rawExtraction, &method, &inv.UsedOCR, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	if items.Valid && items.String != "" {
		if err := json.Unmarshal([]byte(items.String), &inv.LineItems); err != nil {
			return nil, fmt.Errorf("decode line items for %s: %w", inv.ID, err)
		}
	}
	inv.Status = constants.InvoiceStatus(status)
	inv.Priority = constants.Priority(priority)
	inv.PaymentStatus = constants.PaymentStatus(payment)
	inv.ExtractionMethod = constants.ExtractionMethod(method)
	inv.AmountPaid = amountPaid
	inv.SubmittedAt = submitted.ptr()
	inv.ApprovedAt = approved.ptr()
	inv.PaidAt = paid.ptr()
	inv.RawExtraction = jsonBytes(rawExtraction)
	inv.CreatedAt = created.Time
	inv.UpdatedAt = updated.Time
	return &inv, nil
}

func (r *invoiceRepository) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.Priority == "" {
		inv.Priority = constants.DefaultPriority
	}
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now
	if err := inv.CheckInvariants(); err != nil {
		return common.NewAppError("INVARIANT_VIOLATION", "refusing to persist invoice: "+err.Error(), common.ErrInternal)
	}

	q := "INSERT INTO invoices (" + strings.Join(invoiceColumns, ", ") + ") VALUES (" + placeholders(len(invoiceColumns)) + ")"
	if _, err := r.db.exec(ctx, q, invoiceArgs(inv)...); err != nil {
		r.logger.Error("failed to create invoice", "invoice_id", inv.ID, "error", err)
		return common.PersistenceError("create invoice", err)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.db.queryRow(ctx, invoiceSelect+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound(fmt.Sprintf("invoice %s not found", id))
	}
	if err != nil {
		r.logger.Error("failed to get invoice", "invoice_id", id, "error", err)
		return nil, common.PersistenceError("get invoice", err)
	}
	return inv, nil
}

// Update rewrites every mutable column. created_at and uploaded_by never change.
func (r *invoiceRepository) Update(ctx context.Context, inv *entity.Invoice) error {
	if err := inv.CheckInvariants(); err != nil {
		return common.NewAppError("INVARIANT_VIOLATION", "refusing to persist invoice: "+err.Error(), common.ErrInternal)
	}
	inv.UpdatedAt = time.Now().UTC()

	args := invoiceArgs(inv)
	var sets []string
	var vals []any
	for i, col := range invoiceColumns {
		switch col {
		case "id", "uploaded_by", "created_at":
			continue
		}
		sets = append(sets, col+" = ?")
		vals = append(vals, args[i])
	}
	vals = append(vals, inv.ID)

	res, err := r.db.exec(ctx, "UPDATE invoices SET "+strings.Join(sets, ", ")+" WHERE id = ?", vals...)
	if err != nil {
		r.logger.Error("failed to update invoice", "invoice_id", inv.ID, "error", err)
		return common.PersistenceError("update invoice", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFound(fmt.Sprintf("invoice %s not found", inv.ID))
	}
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.exec(ctx, "DELETE FROM notifications WHERE invoice_id = ?", id); err != nil {
		return common.PersistenceError("delete invoice notifications", err)
	}
	res, err := r.db.exec(ctx, "DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		r.logger.Error("failed to delete invoice", "invoice_id", id, "error", err)
		return common.PersistenceError("delete invoice", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFound(fmt.Sprintf("invoice %s not found", id))
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, f InvoiceFilter) ([]*entity.Invoice, error) {
	var where []string
	var args []any
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}
	if f.DepartmentID.Valid {
		where = append(where, "department_id = ?")
		args = append(args, f.DepartmentID.UUID)
	}
	if f.UploadedBy.Valid {
		where = append(where, "uploaded_by = ?")
		args = append(args, f.UploadedBy.UUID)
	}
	if f.SavedOnly {
		where = append(where, "is_saved = ?")
		args = append(args, true)
	}
	if f.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "created_at < ?")
		args = append(args, f.To.UTC())
	}

	q := invoiceSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	return r.queryInvoices(ctx, q, args...)
}

const abandonedPredicate = "status = ? AND is_saved = ? AND created_at < ?"

// ListAbandoned returns unsaved extracted invoices created before cutoff.
func (r *invoiceRepository) ListAbandoned(ctx context.Context, cutoff time.Time) ([]*entity.Invoice, error) {
	return r.queryInvoices(ctx, invoiceSelect+" WHERE "+abandonedPredicate+" ORDER BY created_at",
		string(constants.StatusExtracted), false, cutoff.UTC())
}

// DeleteAbandoned deletes id only if it still matches the abandonment
// predicate, so an invoice saved since it was listed survives.
func (r *invoiceRepository) DeleteAbandoned(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error) {
	res, err := r.db.exec(ctx, "DELETE FROM invoices WHERE id = ? AND "+abandonedPredicate,
		id, string(constants.StatusExtracted), false, cutoff.UTC())
	if err != nil {
		r.logger.Error("failed to delete abandoned invoice", "invoice_id", id, "error", err)
		return false, common.PersistenceError("delete abandoned invoice", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *invoiceRepository) CountByStatus(ctx context.Context) (map[constants.InvoiceStatus]int, error) {
	rows, err := r.db.query(ctx, "SELECT status, COUNT(*) FROM invoices GROUP BY status")
	if err != nil {
		return nil, common.PersistenceError("count invoices", err)
	}
	defer rows.Close()

	out := make(map[constants.InvoiceStatus]int)
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, common.PersistenceError("count invoices", err)
		}
		out[constants.InvoiceStatus(s)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, common.PersistenceError("count invoices", err)
	}
	return out, nil
}

func (r *invoiceRepository) queryInvoices(ctx context.Context, q string, args ...any) ([]*entity.Invoice, error) {
	rows, err := r.db.query(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to query invoices", "error", err)
		return nil, common.PersistenceError("list invoices", err)
	}
	defer rows.Close()

	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, common.PersistenceError("scan invoice", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, common.PersistenceError("list invoices", err)
	}
	return out, nil
}
