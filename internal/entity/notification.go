package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// Notification is an in-app message for a single recipient.
type Notification struct {
	ID          uuid.UUID                  `json:"id"`
	RecipientID uuid.UUID                  `json:"recipient_id"`
	InvoiceID   uuid.UUID                  `json:"invoice_id"`
	Message     string                     `json:"message"`
	Type        constants.NotificationType `json:"type"`
	IsRead      bool                       `json:"is_read"`
	CreatedAt   time.Time                  `json:"created_at"`
}
