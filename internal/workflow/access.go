package workflow

import (
	"context"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// View returns the invoice if the actor may see it and records the view.
func (s *Service) View(ctx context.Context, actorID, invoiceID uuid.UUID) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, inv, err := s.load(ctx, actorID, invoiceID)
		if err != nil {
			return err
		}
		if err := ensureCanView(u, inv); err != nil {
			return err
		}
		out = inv
		return s.audit.Append(ctx, entity.NewAuditRecord(s.clock(), u.ID, inv.ID, constants.AuditViewed, "Invoice viewed", nil, nil))
	})
	if err != nil {
		s.logger.Warn("workflow.view.denied", "invoice_id", invoiceID, "actor_id", actorID, "error", err)
		return nil, err
	}
	return out, nil
}

// Download opens the invoice's stored file. The caller closes the reader.
func (s *Service) Download(ctx context.Context, actorID, invoiceID uuid.UUID) (io.ReadCloser, *entity.Invoice, error) {
	var rc io.ReadCloser
	var out *entity.Invoice
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, inv, err := s.load(ctx, actorID, invoiceID)
		if err != nil {
			return err
		}
		if err := ensureCanView(u, inv); err != nil {
			return err
		}
		if inv.FilePath == "" {
			return common.NotFound("invoice has no stored file")
		}
		f, err := s.files.Open(ctx, inv.FilePath)
		if err != nil {
			return err
		}
		rec := entity.NewAuditRecord(s.clock(), u.ID, inv.ID, constants.AuditDownloaded, "Downloaded file: "+fileLabel(inv), nil, nil)
		if err := s.audit.Append(ctx, rec); err != nil {
			f.Close()
			return err
		}
		rc, out = f, inv
		return nil
	})
	if err != nil {
		s.logger.Warn("workflow.download.denied", "invoice_id", invoiceID, "actor_id", actorID, "error", err)
		return nil, nil, err
	}
	s.logger.Info("workflow.download.ok", "invoice_id", out.ID, "actor_id", actorID)
	return rc, out, nil
}

// Delete removes the invoice regardless of status, then its stored file.
// The audit row keeps the invoice id as a plain reference.
func (s *Service) Delete(ctx context.Context, actorID, invoiceID uuid.UUID) error {
	var filePath string
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, inv, err := s.load(ctx, actorID, invoiceID)
		if err != nil {
			return err
		}
		if err := ensureCanDelete(u, inv); err != nil {
			return err
		}
		if err := s.invoices.Delete(ctx, inv.ID); err != nil {
			return err
		}
		filePath = inv.FilePath
		rec := entity.NewAuditRecord(s.clock(), u.ID, inv.ID, constants.AuditDeleted, "Deleted file: "+fileLabel(inv), inv.Snapshot(), nil)
		return s.audit.Append(ctx, rec)
	})
	if err != nil {
		s.logger.Warn("workflow.delete.denied", "invoice_id", invoiceID, "actor_id", actorID, "error", err)
		return err
	}
	if filePath != "" && s.files != nil {
		if err := s.files.Delete(ctx, filePath); err != nil {
			s.logger.Warn("workflow.delete.file_cleanup_failed", "invoice_id", invoiceID, "file_path", filePath, "error", err)
		}
	}
	s.logger.Info("workflow.delete.ok", "invoice_id", invoiceID, "actor_id", actorID)
	return nil
}

func fileLabel(inv *entity.Invoice) string {
	if inv.Header.Filename != "" {
		return inv.Header.Filename
	}
	return path.Base(inv.FilePath)
}
