package workflow

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// ActionSave asks Update to save the invoice as a draft.
const ActionSave = "save"

// UpdateRequest is an edit payload keyed by persisted column name.
type UpdateRequest struct {
	Fields map[string]string
	Action string
}

func (r UpdateRequest) keys() []string {
	return slices.Sorted(maps.Keys(r.Fields))
}

// paymentOnly reports whether every key except priority is a payment field.
func (r UpdateRequest) paymentOnly() bool {
	n := 0
	for k := range r.Fields {
		if k == constants.ColPriority {
			continue
		}
		if _, ok := constants.PaymentFields[k]; !ok {
			return false
		}
		n++
	}
	return n > 0
}

// Update applies a field edit. Payment-only payloads use the payment guard;
// anything else needs the edit guard. A save action from a non-approver is
// treated as SaveDraft. Only a real value change is persisted and audited.
func (s *Service) Update(ctx context.Context, actorID, invoiceID uuid.UUID, req UpdateRequest) (*entity.Invoice, error) {
	req.Fields = maps.Clone(req.Fields)
	var out *entity.Invoice
	var changed, drafted bool
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, inv, err := s.load(ctx, actorID, invoiceID)
		if err != nil {
			return err
		}

		if req.paymentOnly() {
			if err := ensureCanUpdatePayment(u); err != nil {
				return err
			}
			if strings.TrimSpace(req.Fields[constants.ColPriority]) != "" && !canEdit(u, inv) {
				return ensureCanEdit(u, inv)
			}
			changed, err = s.applyEdit(ctx, u, inv, req)
			out = inv
			return err
		}

		if err := ensureCanEdit(u, inv); err != nil {
			return err
		}
		delete(req.Fields, constants.ColDepartmentID)

		if req.Action == ActionSave && !u.Can().CanApprove {
			if err := ensureCanSaveDraft(u, inv); err != nil {
				return err
			}
			drafted = true
			out = inv
			return s.saveDraft(ctx, u, inv, req)
		}

		var forbidden []string
		for _, k := range req.keys() {
			if k == constants.ColPriority {
				continue
			}
			if _, ok := constants.AllowedUpdateFields[k]; !ok {
				forbidden = append(forbidden, k)
			}
		}
		if len(forbidden) > 0 {
			return common.ValidationErrorf("%s: %s", msgForbiddenFields, strings.Join(forbidden, ", "))
		}
		changed, err = s.applyEdit(ctx, u, inv, req)
		out = inv
		return err
	})
	if err != nil {
		s.logger.Warn("workflow.update.denied", "invoice_id", invoiceID, "actor_id", actorID, "error", err)
		return nil, err
	}
	if drafted {
		return s.promote(ctx, out), nil
	}
	s.logger.Info("workflow.update.ok", "invoice_id", out.ID, "actor_id", actorID, "changed", changed)
	return out, nil
}

// SaveDraft persists allow-listed business fields and marks the invoice as
// a saved draft, then moves its file out of temporary storage.
func (s *Service) SaveDraft(ctx context.Context, actorID, invoiceID uuid.UUID, req UpdateRequest) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, inv, err := s.load(ctx, actorID, invoiceID)
		if err != nil {
			return err
		}
		if err := ensureCanSaveDraft(u, inv); err != nil {
			return err
		}
		out = inv
		return s.saveDraft(ctx, u, inv, req)
	})
	if err != nil {
		s.logger.Warn("workflow.save_draft.denied", "invoice_id", invoiceID, "actor_id", actorID, "error", err)
		return nil, err
	}
	return s.promote(ctx, out), nil
}

// applyEdit writes every field onto inv and persists it with an "edited"
// audit row when the values actually changed. Field values are validated
// before anything is written.
func (s *Service) applyEdit(ctx context.Context, u *entity.User, inv *entity.Invoice, req UpdateRequest) (bool, error) {
	before := inv.Snapshot()
	prior := inv.Values()
	if err := applyFields(inv, req, func(string) bool { return true }); err != nil {
		return false, err
	}
	if maps.Equal(prior, inv.Values()) {
		return false, nil
	}
	rec := entity.NewAuditRecord(s.clock(), u.ID, inv.ID, constants.AuditEdited, "Invoice data updated", before, inv.Snapshot())
	return true, s.record(ctx, inv, rec)
}

func (s *Service) saveDraft(ctx context.Context, u *entity.User, inv *entity.Invoice, req UpdateRequest) error {
	before := inv.Snapshot()
	allowed := func(k string) bool {
		_, ok := constants.AllowedUpdateFields[k]
		return ok
	}
	if err := applyFields(inv, req, allowed); err != nil {
		return err
	}
	inv.Status = constants.StatusDraft
	inv.IsSaved = true
	rec := entity.NewAuditRecord(s.clock(), u.ID, inv.ID, constants.AuditSavedDraft, "Saved changes (draft)", before, inv.Snapshot())
	if err := s.record(ctx, inv, rec); err != nil {
		return err
	}
	s.logger.Info("workflow.save_draft.ok", "invoice_id", inv.ID, "actor_id", u.ID)
	return nil
}

// applyFields validates priority, then writes the fields keep accepts.
// An empty priority leaves the current one in place. Invoice-level header
// edits are carried onto the line items.
func applyFields(inv *entity.Invoice, req UpdateRequest, keep func(string) bool) error {
	if p, ok := req.Fields[constants.ColPriority]; ok && strings.TrimSpace(p) != "" {
		if !constants.Priority(strings.ToLower(strings.TrimSpace(p))).Valid() {
			return common.ValidationErrorf(msgInvalidPriority)
		}
	}
	applied := make([]string, 0, len(req.Fields))
	for _, k := range req.keys() {
		v := req.Fields[k]
		if k == constants.ColPriority {
			if strings.TrimSpace(v) == "" {
				continue
			}
		} else if !keep(k) {
			continue
		}
		if err := inv.Apply(k, v); err != nil {
			return common.ValidationErrorf(msgInvalidFieldValue+": %v", k, err)
		}
		applied = append(applied, k)
	}
	inv.InheritHeader(applied)
	return nil
}

// promote moves a saved invoice's file to permanent storage. A failure
// leaves the temp key in place; saved invoices are never swept.
func (s *Service) promote(ctx context.Context, inv *entity.Invoice) *entity.Invoice {
	if s.files == nil || inv.FilePath == "" {
		return inv
	}
	key, err := s.files.Promote(ctx, inv.FilePath)
	if err != nil {
		s.logger.Warn("workflow.save_draft.promote_failed", "invoice_id", inv.ID, "file_path", inv.FilePath, "error", err)
		return inv
	}
	if key == inv.FilePath {
		return inv
	}
	inv.FilePath = key
	if err := s.invoices.Update(ctx, inv); err != nil {
		s.logger.Error("workflow.save_draft.path_update_failed", "invoice_id", inv.ID, "file_path", key, "error", err)
	}
	return inv
}
