package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

// Message is one workflow event addressed to one or more users.
type Message struct {
	Type       constants.NotificationType
	InvoiceID  uuid.UUID
	ActorID    uuid.UUID
	Recipients []uuid.UUID
	Text       string
}

// Notifier delivers workflow messages. Callers treat failures as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// StoreNotifier writes in-app notifications, one row per recipient.
type StoreNotifier struct {
	repo repository.NotificationRepository
}

func NewStoreNotifier(repo repository.NotificationRepository) *StoreNotifier {
	return &StoreNotifier{repo: repo}
}

func (s *StoreNotifier) Notify(ctx context.Context, msg Message) error {
	now := time.Now().UTC()
	var errs []error
	for _, r := range msg.Recipients {
		n := &entity.Notification{
			RecipientID: r,
			InvoiceID:   msg.InvoiceID,
			Message:     msg.Text,
			Type:        msg.Type,
			CreatedAt:   now,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Multi fans a message out to every notifier. Each failure is logged and
// the rest still run.
type Multi struct {
	notifiers []Notifier
	logger    *slog.Logger
}

func NewMulti(logger *slog.Logger, notifiers ...Notifier) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	var ns []Notifier
	for _, n := range notifiers {
		if n != nil {
			ns = append(ns, n)
		}
	}
	return &Multi{notifiers: ns, logger: logger}
}

func (m *Multi) Notify(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return nil
	}
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			m.logger.Warn("notify.delivery_failed",
				"type", msg.Type,
				"invoice_id", msg.InvoiceID,
				"recipients", len(msg.Recipients),
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every message.
type Discard struct{}

func (Discard) Notify(context.Context, Message) error { return nil }
