package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/notify"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
	"github.com/joseph-ayodele/invoice-tracker/internal/storage"
)

// TxRunner runs fn in one transaction; repositories called with the ctx
// passed to fn join it. *repository.DB satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps are the collaborators of Service.
type Deps struct {
	Tx       TxRunner
	Invoices repository.InvoiceRepository
	Audit    repository.AuditRepository
	Users    repository.UserRepository
	Files    storage.FileStore
	Notifier notify.Notifier
}

// Service drives invoices through their lifecycle. Every operation loads
// the invoice, runs its guard, and persists the change together with its
// audit record in one transaction. Notifications go out after commit.
type Service struct {
	tx       TxRunner
	invoices repository.InvoiceRepository
	audit    repository.AuditRepository
	users    repository.UserRepository
	files    storage.FileStore
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(deps Deps, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		tx:       deps.Tx,
		invoices: deps.Invoices,
		audit:    deps.Audit,
		users:    deps.Users,
		files:    deps.Files,
		notifier: deps.Notifier,
		logger:   logger,
		now:      time.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.Discard{}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) clock() time.Time { return s.now().UTC() }

// loadActor resolves the acting user. Unknown users are reported like
// inactive ones so callers cannot probe for ids.
func (s *Service) loadActor(ctx context.Context, actorID uuid.UUID) (*entity.User, error) {
	u, err := s.users.Get(ctx, actorID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.Deny(common.DenyInactiveUser, msgInactiveUser)
	}
	if err != nil {
		return nil, err
	}
	if err := ensureActive(u); err != nil {
		return nil, err
	}
	return u, nil
}

// load fetches actor and invoice inside the current transaction.
func (s *Service) load(ctx context.Context, actorID, invoiceID uuid.UUID) (*entity.User, *entity.Invoice, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	inv, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	return actor, inv, nil
}

// record persists inv and appends one audit row in ctx's transaction.
func (s *Service) record(ctx context.Context, inv *entity.Invoice, rec entity.AuditRecord) error {
	if err := s.invoices.Update(ctx, inv); err != nil {
		return err
	}
	return s.audit.Append(ctx, rec)
}

// deliver sends msg and only logs failures; the transition is already committed.
func (s *Service) deliver(ctx context.Context, msg notify.Message) {
	if len(msg.Recipients) == 0 {
		s.logger.Debug("workflow.notify.no_recipients", "type", msg.Type, "invoice_id", msg.InvoiceID)
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Warn("workflow.notify.failed", "type", msg.Type, "invoice_id", msg.InvoiceID, "error", err)
	}
}

func (s *Service) financeRecipients(ctx context.Context) []uuid.UUID {
	users, err := s.users.ListActiveByRoles(ctx, constants.RoleFinance)
	if err != nil {
		s.logger.Warn("workflow.notify.recipients_failed", "error", err)
		return nil
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func submittedMessage(inv *entity.Invoice, uploader string) string {
	return fmt.Sprintf("New invoice %s submitted by %s for approval", inv.DisplayNumber(), uploader)
}

func approvedMessage(inv *entity.Invoice) string {
	return fmt.Sprintf("Your invoice %s has been approved", inv.DisplayNumber())
}

func rejectedMessage(inv *entity.Invoice) string {
	return fmt.Sprintf("Your invoice %s has been rejected. Remarks: %s", inv.DisplayNumber(), inv.RejectionRemarks)
}
