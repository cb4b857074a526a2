package workflow

import (
	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// Guard messages are returned to callers verbatim.
const (
	msgInactiveUser      = "Invalid or inactive user"
	msgAlreadyPending    = "Invoice already pending approval"
	msgSubmitNotOwner    = "Only uploader or Super Admin can submit"
	msgSubmitClosed      = "Only extracted or draft invoices can be submitted"
	msgApproveRole       = "Only Finance & Accounts or Super Admin can approve/reject"
	msgApproveStatus     = "Only pending invoices can be approved/rejected"
	msgRemarksRequired   = "Rejection remarks are required"
	msgEditApproved      = "Cannot edit approved invoices"
	msgEditRejected      = "Cannot edit rejected invoices"
	msgEditDepartment    = "You do not have permission to edit invoices from other departments"
	msgEditNotOwner      = "You can only edit invoices that you uploaded"
	msgEditStatus        = "You cannot edit this invoice in its current status"
	msgPaymentRole       = "Only Finance or Super Admin can update payment status"
	msgDraftRole         = "Finance & Accounts and Super Admin edit invoices directly"
	msgDraftStatus       = "Only extracted or draft invoices can be saved as draft"
	msgDeleteNotOwner    = "Only uploader or Super Admin can delete"
	msgAccessDenied      = "Access denied"
	msgInvalidPriority   = "Invalid priority value"
	msgForbiddenFields   = "Forbidden fields in update"
	msgInvalidFieldValue = "Invalid value for %s"
)

func ensureActive(u *entity.User) error {
	if u == nil || !u.IsActive {
		return common.Deny(common.DenyInactiveUser, msgInactiveUser)
	}
	return nil
}

func isUploader(u *entity.User, inv *entity.Invoice) bool {
	return u.ID == inv.UploadedBy
}

func ensureCanSubmit(u *entity.User, inv *entity.Invoice) error {
	if err := ensureActive(u); err != nil {
		return err
	}
	if inv.Status == constants.StatusPending {
		return common.Deny(common.DenyWrongStatus, msgAlreadyPending)
	}
	if !u.Can().IsSuperAdmin && !isUploader(u, inv) {
		return common.Deny(common.DenyNotUploader, msgSubmitNotOwner)
	}
	if inv.Status != constants.StatusExtracted && inv.Status != constants.StatusDraft {
		return common.Deny(common.DenyWrongStatus, msgSubmitClosed)
	}
	return nil
}

// ensureCanDecide guards both approve and reject.
func ensureCanDecide(u *entity.User, inv *entity.Invoice) error {
	if err := ensureActive(u); err != nil {
		return err
	}
	if !u.Can().CanApprove {
		return common.Deny(common.DenyWrongRole, msgApproveRole)
	}
	if inv.Status != constants.StatusPending {
		return common.Deny(common.DenyWrongStatus, msgApproveStatus)
	}
	return nil
}

// canEdit is the raw edit predicate: super-admin always; approvers while the
// invoice is undecided; the uploader in any non-approved state.
func canEdit(u *entity.User, inv *entity.Invoice) bool {
	caps := u.Can()
	if caps.IsSuperAdmin {
		return true
	}
	if caps.CanApprove {
		switch inv.Status {
		case constants.StatusExtracted, constants.StatusDraft, constants.StatusPending:
			return true
		}
		return false
	}
	if isUploader(u, inv) {
		switch inv.Status {
		case constants.StatusExtracted, constants.StatusDraft, constants.StatusRejected, constants.StatusPending:
			return true
		}
	}
	return false
}

// ensureCanEdit explains a refused edit with the most specific reason.
func ensureCanEdit(u *entity.User, inv *entity.Invoice) error {
	if err := ensureActive(u); err != nil {
		return err
	}
	if canEdit(u, inv) {
		return nil
	}
	superAdmin := u.Can().IsSuperAdmin
	switch {
	case inv.Status == constants.StatusApproved:
		return common.Deny(common.DenyWrongStatus, msgEditApproved)
	case inv.Status == constants.StatusRejected:
		return common.Deny(common.DenyWrongStatus, msgEditRejected)
	case u.DepartmentID != inv.DepartmentID && !superAdmin:
		return common.Deny(common.DenyWrongDepartment, msgEditDepartment)
	case !isUploader(u, inv) && !superAdmin:
		return common.Deny(common.DenyNotUploader, msgEditNotOwner)
	default:
		return common.Deny(common.DenyWrongStatus, msgEditStatus)
	}
}

// ensureCanUpdatePayment is the narrow guard for payment sub-state. It
// ignores lifecycle status, so approved invoices can still be settled.
func ensureCanUpdatePayment(u *entity.User) error {
	if err := ensureActive(u); err != nil {
		return err
	}
	caps := u.Can()
	if !caps.IsFinance && !caps.IsSuperAdmin {
		return common.Deny(common.DenyWrongRole, msgPaymentRole)
	}
	return nil
}

func ensureCanSaveDraft(u *entity.User, inv *entity.Invoice) error {
	if err := ensureCanEdit(u, inv); err != nil {
		return err
	}
	if u.Can().CanApprove {
		return common.Deny(common.DenyWrongRole, msgDraftRole)
	}
	if inv.Status != constants.StatusExtracted && inv.Status != constants.StatusDraft {
		return common.Deny(common.DenyWrongStatus, msgDraftStatus)
	}
	return nil
}

func ensureCanDelete(u *entity.User, inv *entity.Invoice) error {
	if err := ensureActive(u); err != nil {
		return err
	}
	if !u.Can().IsSuperAdmin && !isUploader(u, inv) {
		return common.Deny(common.DenyNotUploader, msgDeleteNotOwner)
	}
	return nil
}

// ensureCanView applies visibility: unsaved extractions belong to the
// uploader alone, drafts are shared with approvers, and everything else is
// visible department-wide.
func ensureCanView(u *entity.User, inv *entity.Invoice) error {
	if err := ensureActive(u); err != nil {
		return err
	}
	if isUploader(u, inv) || u.Can().IsSuperAdmin {
		return nil
	}
	switch {
	case inv.Status == constants.StatusExtracted && !inv.IsSaved:
		return common.Deny(common.DenyNotUploader, msgAccessDenied)
	case inv.Status == constants.StatusDraft || inv.Status == constants.StatusExtracted:
		if u.Can().CanApprove {
			return nil
		}
		return common.Deny(common.DenyNotUploader, msgAccessDenied)
	}
	if u.Can().CanApprove {
		return nil
	}
	if inv.DepartmentID.Valid && u.DepartmentID == inv.DepartmentID {
		return nil
	}
	return common.Deny(common.DenyWrongDepartment, msgAccessDenied)
}
