package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGRPCStatusMapsTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"not found", fmt.Errorf("load: %w", ErrNotFound), codes.NotFound},
		{"file", FileValidationError("empty file"), codes.InvalidArgument},
		{"validation", ValidationErrorf("bad priority %q", "urgent"), codes.InvalidArgument},
		{"permission", Deny(DenyNotUploader, "Only uploader or Super Admin can submit"), codes.PermissionDenied},
		{"extraction", ExtractionError("page 2 render", errors.New("exit 1")), codes.Unavailable},
		{"persistence", PersistenceError("insert", errors.New("conn reset")), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(GRPCStatus(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
		})
	}
	assert.NoError(t, GRPCStatus(nil))
}

func TestPermissionErrorCarriesReason(t *testing.T) {
	err := fmt.Errorf("approve: %w", Deny(DenyWrongStatus, "Only pending invoices can be approved/rejected"))
	assert.ErrorIs(t, err, ErrPermissionDenied)
	reason, ok := DenialReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, DenyWrongStatus, reason)

	st, _ := status.FromError(GRPCStatus(err))
	assert.Equal(t, "Only pending invoices can be approved/rejected", st.Message())
}

func TestValidatorRules(t *testing.T) {
	v := NewValidator()
	v.Field("priority", "urgent", OneOf("low", "medium", "high"))
	v.Field("amount_paid", "-3", NonNegativeDecimal)
	v.Field("amount_paid", "12.50", NonNegativeDecimal)
	v.Field("remarks", "  ", Required)
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)
	assert.True(t, IsValidation(v.Error()))
}
