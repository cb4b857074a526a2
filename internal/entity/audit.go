package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// AuditRecord is an append-only history entry.
type AuditRecord struct {
	ID        uuid.UUID             `json:"id"`
	ActorID   uuid.UUID             `json:"actor_id"`
	InvoiceID uuid.NullUUID         `json:"invoice_id"`
	Action    constants.AuditAction `json:"action"`
	Before    json.RawMessage       `json:"before,omitempty"`
	After     json.RawMessage       `json:"after,omitempty"`
	Remarks   string                `json:"remarks"`
	Timestamp time.Time             `json:"timestamp"`
}

// NewAuditRecord builds a record stamped at, with snapshots encoded as JSON.
func NewAuditRecord(at time.Time, actor uuid.UUID, invoiceID uuid.UUID, action constants.AuditAction, remarks string, before, after any) AuditRecord {
	rec := AuditRecord{
		ID:        uuid.New(),
		ActorID:   actor,
		Action:    action,
		Remarks:   remarks,
		Timestamp: at.UTC(),
	}
	if invoiceID != uuid.Nil {
		rec.InvoiceID = uuid.NullUUID{UUID: invoiceID, Valid: true}
	}
	if before != nil {
		rec.Before, _ = json.Marshal(before)
	}
	if after != nil {
		rec.After, _ = json.Marshal(after)
	}
	return rec
}
