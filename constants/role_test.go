package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role    Role
		approve bool
		upload  bool
		manage  bool
	}{
		{RoleAdmin, false, true, false},
		{RoleHR, false, false, false},
		{RoleSite, false, true, false},
		{RoleProcurement, false, true, false},
		{RoleFinance, true, false, false},
		{RoleSuperAdmin, true, true, true},
		{Role("Intern"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			c := tt.role.Capabilities()
			assert.Equal(t, tt.approve, c.CanApprove)
			assert.Equal(t, tt.upload, c.CanUpload)
			assert.Equal(t, tt.manage, c.CanManageUsers)
		})
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("  finance ")
	assert.True(t, ok)
	assert.Equal(t, RoleFinance, r)

	r, ok = ParseRole("super admin")
	assert.True(t, ok)
	assert.Equal(t, RoleSuperAdmin, r)

	_, ok = ParseRole("janitor")
	assert.False(t, ok)
}

func TestExtractableFieldsSkipsManualColumns(t *testing.T) {
	fields := ExtractableFields()
	assert.NotContains(t, fields, FieldSNo)
	assert.NotContains(t, fields, FieldTDS)
	assert.NotContains(t, fields, FieldNetPayable)
	assert.NotContains(t, fields, FieldFilename)
	assert.Contains(t, fields, FieldGSTNumber)
	assert.Len(t, CanonicalFields(), 17)
}
