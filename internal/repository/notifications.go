package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]entity.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
}

type notificationRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewNotificationRepository(db *DB, logger *slog.Logger) NotificationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &notificationRepository{db: db, logger: logger}
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := r.db.exec(ctx,
		"INSERT INTO notifications (id, recipient_id, invoice_id, message, type, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		n.ID, n.RecipientID, n.InvoiceID, n.Message, string(n.Type), n.IsRead, n.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("failed to create notification", "recipient_id", n.RecipientID, "error", err)
		return common.PersistenceError("create notification", err)
	}
	return nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]entity.Notification, error) {
	q := "SELECT id, recipient_id, invoice_id, message, type, is_read, created_at FROM notifications WHERE recipient_id = ?"
	args := []any{recipientID}
	if unreadOnly {
		q += " AND is_read = ?"
		args = append(args, false)
	}
	q += " ORDER BY created_at DESC, id"

	rows, err := r.db.query(ctx, q, args...)
	if err != nil {
		return nil, common.PersistenceError("list notifications", err)
	}
	defer rows.Close()

	var out []entity.Notification
	for rows.Next() {
		var (
			n   entity.Notification
			typ string
			ts  nullTime
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.InvoiceID, &n.Message, &typ, &n.IsRead, &ts); err != nil {
			return nil, common.PersistenceError("scan notification", err)
		}
		n.Type = constants.NotificationType(typ)
		n.CreatedAt = ts.Time
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, common.PersistenceError("list notifications", err)
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	res, err := r.db.exec(ctx, "UPDATE notifications SET is_read = ? WHERE id = ? AND recipient_id = ?", true, id, recipientID)
	if err != nil {
		return common.PersistenceError("mark notification read", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFound("notification not found")
	}
	return nil
}
