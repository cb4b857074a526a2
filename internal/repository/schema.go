package repository

import (
	"context"
	"fmt"
	"strings"
)

// Column types that differ between dialects.
type columnTypes struct {
	uuid, ts, json, boolean, money string
}

func (db *DB) types() columnTypes {
	if db.dialect == DialectPostgres {
		return columnTypes{uuid: "UUID", ts: "TIMESTAMPTZ", json: "JSONB", boolean: "BOOLEAN", money: "NUMERIC(14,2)"}
	}
	return columnTypes{uuid: "TEXT", ts: "TIMESTAMP", json: "TEXT", boolean: "BOOLEAN", money: "TEXT"}
}

// EnsureSchema creates the tables and indexes when missing. It does not
// migrate existing tables.
func (db *DB) EnsureSchema(ctx context.Context) error {
	t := db.types()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS departments (
			id {uuid} PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id {uuid} PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			department_id {uuid} REFERENCES departments(id),
			is_active {bool} NOT NULL DEFAULT TRUE,
			created_at {ts} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			id {uuid} PRIMARY KEY,
			s_no INTEGER NOT NULL DEFAULT 0,
			invoice_date TEXT NOT NULL DEFAULT '',
			invoice_number TEXT NOT NULL DEFAULT '',
			po_number TEXT NOT NULL DEFAULT '',
			gst_number TEXT NOT NULL DEFAULT '',
			vendor_name TEXT NOT NULL DEFAULT '',
			line_item TEXT NOT NULL DEFAULT '',
			hsn_sac TEXT NOT NULL DEFAULT '',
			gst_percent TEXT NOT NULL DEFAULT '',
			igst_amount TEXT NOT NULL DEFAULT '',
			cgst_amount TEXT NOT NULL DEFAULT '',
			sgst_amount TEXT NOT NULL DEFAULT '',
			basic_amount TEXT NOT NULL DEFAULT '',
			total_amount TEXT NOT NULL DEFAULT '',
			tds TEXT NOT NULL DEFAULT '',
			net_payable TEXT NOT NULL DEFAULT '',
			filename TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL DEFAULT '',
			remarks TEXT NOT NULL DEFAULT '',
			selected_line_items {json},
			uploaded_by {uuid} NOT NULL REFERENCES users(id),
			department_id {uuid} REFERENCES departments(id),
			status TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT 'low',
			is_saved {bool} NOT NULL DEFAULT FALSE,
			approved_by {uuid} REFERENCES users(id),
			submitted_at {ts},
			approved_at {ts},
			approval_remarks TEXT NOT NULL DEFAULT '',
			rejection_remarks TEXT NOT NULL DEFAULT '',
			payment_status TEXT NOT NULL DEFAULT '',
			amount_paid {money},
			paid_at {ts},
			raw_text TEXT NOT NULL DEFAULT '',
			raw_extraction {json},
			extraction_method TEXT NOT NULL DEFAULT '',
			used_ocr {bool} NOT NULL DEFAULT FALSE,
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_status_created ON invoices (status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_uploaded_by ON invoices (uploaded_by)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_department ON invoices (department_id)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id {uuid} PRIMARY KEY,
			user_id {uuid} NOT NULL,
			invoice_id {uuid},
			action TEXT NOT NULL,
			before_data {json},
			after_data {json},
			remarks TEXT NOT NULL DEFAULT '',
			created_at {ts} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_invoice ON audit_logs (invoice_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_logs (user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id {uuid} PRIMARY KEY,
			recipient_id {uuid} NOT NULL,
			invoice_id {uuid} NOT NULL,
			message TEXT NOT NULL,
			type TEXT NOT NULL,
			is_read {bool} NOT NULL DEFAULT FALSE,
			created_at {ts} NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, is_read)`,
	}

	r := strings.NewReplacer("{uuid}", t.uuid, "{ts}", t.ts, "{json}", t.json, "{bool}", t.boolean, "{money}", t.money)
	for _, s := range stmts {
		if _, err := db.sql.ExecContext(ctx, r.Replace(s)); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	db.logger.Debug("schema ensured", "dialect", db.dialect)
	return nil
}
