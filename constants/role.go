package constants

import (
	"strings"
)

// Role is a workflow role. The set is closed; capabilities are derived from it.
type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleHR          Role = "HR"
	RoleSite        Role = "Site"
	RoleProcurement Role = "Procurement"
	RoleFinance     Role = "Finance & Accounts"
	RoleSuperAdmin  Role = "Super Admin"
)

var allRoles = []Role{
	RoleAdmin,
	RoleHR,
	RoleSite,
	RoleProcurement,
	RoleFinance,
	RoleSuperAdmin,
}

// Capabilities is what a role is allowed to do in the invoice workflow.
type Capabilities struct {
	CanApprove     bool
	CanUpload      bool
	CanManageUsers bool
	IsSuperAdmin   bool
	IsFinance      bool
}

var capabilityTable = map[Role]Capabilities{
	RoleAdmin:       {CanUpload: true},
	RoleHR:          {},
	RoleSite:        {CanUpload: true},
	RoleProcurement: {CanUpload: true},
	RoleFinance:     {CanApprove: true, IsFinance: true},
	RoleSuperAdmin:  {CanApprove: true, CanUpload: true, CanManageUsers: true, IsSuperAdmin: true},
}

// Capabilities returns the capability set for r. Unknown roles get none.
func (r Role) Capabilities() Capabilities {
	return capabilityTable[r]
}

func (r Role) Valid() bool {
	_, ok := capabilityTable[r]
	return ok
}

func (r Role) String() string { return string(r) }

// Roles returns every known role in display order.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole maps free-form input (seed files, CLI flags) onto a Role.
func ParseRole(input string) (Role, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Role{
		"finance":          RoleFinance,
		"accounts":         RoleFinance,
		"finance_accounts": RoleFinance,
		"superadmin":       RoleSuperAdmin,
		"super_admin":      RoleSuperAdmin,
		"purchase":         RoleProcurement,
	}
	if r, ok := synonyms[normalized]; ok {
		return r, true
	}

	for _, r := range allRoles {
		if normalized == strings.ToLower(string(r)) {
			return r, true
		}
	}
	return "", false
}
