package workflow

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/notify"
)

// Submit moves an extracted or draft invoice to pending and notifies every
// active finance user.
func (s *Service) Submit(ctx context.Context, actorID, invoiceID uuid.UUID) (*entity.Invoice, error) {
	var out *entity.Invoice
	var actor *entity.User
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, inv, err := s.load(ctx, actorID, invoiceID)
		if err != nil {
			return err
		}
		if err := ensureCanSubmit(u, inv); err != nil {
			return err
		}
		before := inv.Snapshot()
		now := s.clock()
		inv.Status = constants.StatusPending
		inv.SubmittedAt = &now
		rec := entity.NewAuditRecord(now, u.ID, inv.ID, constants.AuditSubmitted, "Submitted for approval", before, inv.Snapshot())
		if err := s.record(ctx, inv, rec); err != nil {
			return err
		}
		out, actor = inv, u
		return nil
	})
	if err != nil {
		s.logger.Warn("workflow.submit.denied", "invoice_id", invoiceID, "actor_id", actorID, "error", err)
		return nil, err
	}
	s.logger.Info("workflow.submit.ok", "invoice_id", out.ID, "actor_id", actor.ID)

	uploader := actor.Username
	if actor.ID != out.UploadedBy {
		if u, err := s.users.Get(ctx, out.UploadedBy); err == nil {
			uploader = u.Username
		}
	}
	s.deliver(ctx, notify.Message{
		Type:       constants.NotifyInvoiceSubmitted,
		InvoiceID:  out.ID,
		ActorID:    actor.ID,
		Recipients: s.financeRecipients(ctx),
		Text:       submittedMessage(out, uploader),
	})
	return out, nil
}

// Approve closes a pending invoice as approved. remarks are optional.
func (s *Service) Approve(ctx context.Context, actorID, invoiceID uuid.UUID, remarks string) (*entity.Invoice, error) {
	remarks = strings.TrimSpace(remarks)
	out, err := s.decide(ctx, actorID, invoiceID, func(inv *entity.Invoice) entity.AuditRecord {
		inv.Status = constants.StatusApproved
		inv.ApprovalRemarks = remarks
		note := "Invoice approved"
		if remarks != "" {
			note += " - " + remarks
		}
		return entity.AuditRecord{Action: constants.AuditApproved, Remarks: note}
	})
	if err != nil {
		s.logger.Warn("workflow.approve.denied", "invoice_id", invoiceID, "actor_id", actorID, "error", err)
		return nil, err
	}
	s.logger.Info("workflow.approve.ok", "invoice_id", out.ID, "actor_id", actorID)
	s.deliver(ctx, notify.Message{
		Type:       constants.NotifyInvoiceApproved,
		InvoiceID:  out.ID,
		ActorID:    actorID,
		Recipients: []uuid.UUID{out.UploadedBy},
		Text:       approvedMessage(out),
	})
	return out, nil
}

// Reject closes a pending invoice as rejected. Blank remarks are refused
// before any permission check.
func (s *Service) Reject(ctx context.Context, actorID, invoiceID uuid.UUID, remarks string) (*entity.Invoice, error) {
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return nil, common.ValidationErrorf(msgRemarksRequired)
	}
	out, err := s.decide(ctx, actorID, invoiceID, func(inv *entity.Invoice) entity.AuditRecord {
		inv.Status = constants.StatusRejected
		inv.RejectionRemarks = remarks
		return entity.AuditRecord{Action: constants.AuditRejected, Remarks: "Rejected: " + remarks}
	})
	if err != nil {
		s.logger.Warn("workflow.reject.denied", "invoice_id", invoiceID, "actor_id", actorID, "error", err)
		return nil, err
	}
	s.logger.Info("workflow.reject.ok", "invoice_id", out.ID, "actor_id", actorID)
	s.deliver(ctx, notify.Message{
		Type:       constants.NotifyInvoiceRejected,
		InvoiceID:  out.ID,
		ActorID:    actorID,
		Recipients: []uuid.UUID{out.UploadedBy},
		Text:       rejectedMessage(out),
	})
	return out, nil
}

// decide runs the shared approve/reject transition. apply sets the target
// status and returns the audit action and remarks.
func (s *Service) decide(ctx context.Context, actorID, invoiceID uuid.UUID, apply func(*entity.Invoice) entity.AuditRecord) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, inv, err := s.load(ctx, actorID, invoiceID)
		if err != nil {
			return err
		}
		if err := ensureCanDecide(u, inv); err != nil {
			return err
		}
		before := inv.Snapshot()
		now := s.clock()
		inv.ApprovedBy = uuid.NullUUID{UUID: u.ID, Valid: true}
		inv.ApprovedAt = &now
		partial := apply(inv)
		rec := entity.NewAuditRecord(now, u.ID, inv.ID, partial.Action, partial.Remarks, before, inv.Snapshot())
		if err := s.record(ctx, inv, rec); err != nil {
			return err
		}
		out = inv
		return nil
	})
	return out, err
}
