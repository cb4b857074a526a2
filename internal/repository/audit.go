package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// AuditRepository is append-only: there is no update or delete.
type AuditRepository interface {
	Append(ctx context.Context, rec entity.AuditRecord) error
	ByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.AuditRecord, error)
	ByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.AuditRecord, error)
	Recent(ctx context.Context, limit int) ([]entity.AuditRecord, error)
}

type auditRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewAuditRepository(db *DB, logger *slog.Logger) AuditRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &auditRepository{db: db, logger: logger}
}

const auditSelect = "SELECT id, user_id, invoice_id, action, before_data, after_data, remarks, created_at FROM audit_logs"

func (r *auditRepository) Append(ctx context.Context, rec entity.AuditRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.db.exec(ctx,
		"INSERT INTO audit_logs (id, user_id, invoice_id, action, before_data, after_data, remarks, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.ActorID, rec.InvoiceID, string(rec.Action), jsonArg(rec.Before), jsonArg(rec.After), rec.Remarks, rec.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("failed to append audit record", "action", rec.Action, "invoice_id", rec.InvoiceID.UUID, "error", err)
		return common.PersistenceError("append audit record", err)
	}
	return nil
}

func (r *auditRepository) ByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.AuditRecord, error) {
	return r.list(ctx, auditSelect+" WHERE invoice_id = ? ORDER BY created_at, id", invoiceID)
}

func (r *auditRepository) ByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.AuditRecord, error) {
	return r.list(ctx, auditSelect+" WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?", userID, normalizeLimit(limit))
}

func (r *auditRepository) Recent(ctx context.Context, limit int) ([]entity.AuditRecord, error) {
	return r.list(ctx, auditSelect+" ORDER BY created_at DESC, id LIMIT ?", normalizeLimit(limit))
}

func (r *auditRepository) list(ctx context.Context, q string, args ...any) ([]entity.AuditRecord, error) {
	rows, err := r.db.query(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to query audit records", "error", err)
		return nil, common.PersistenceError("query audit records", err)
	}
	defer rows.Close()

	var out []entity.AuditRecord
	for rows.Next() {
		var (
			rec           entity.AuditRecord
			action        string
			before, after sql.NullString
			ts            nullTime
		)
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.InvoiceID, &action, &before, &after, &rec.Remarks, &ts); err != nil {
			return nil, common.PersistenceError("scan audit record", err)
		}
		rec.Action = constants.AuditAction(action)
		rec.Before = jsonBytes(before)
		rec.After = jsonBytes(after)
		rec.Timestamp = ts.Time
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.PersistenceError("query audit records", err)
	}
	return out, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
