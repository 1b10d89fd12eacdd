package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shippingAddress struct {
	Name    string `validate:"required"`
	Mobile  string `validate:"required,mobile"`
	Pincode string `validate:"required,pincode"`
}

func TestValidateCustomTags(t *testing.T) {
	tests := []struct {
		name    string
		in      shippingAddress
		wantErr bool
		field   string
	}{
		{
			name: "valid",
			in:   shippingAddress{Name: "Asha", Mobile: "9876543210", Pincode: "560001"},
		},
		{
			name:    "mobile too short",
			in:      shippingAddress{Name: "Asha", Mobile: "98765", Pincode: "560001"},
			wantErr: true,
			field:   "Mobile",
		},
		{
			name:    "mobile bad prefix",
			in:      shippingAddress{Name: "Asha", Mobile: "1876543210", Pincode: "560001"},
			wantErr: true,
			field:   "Mobile",
		},
		{
			name:    "pincode leading zero",
			in:      shippingAddress{Name: "Asha", Mobile: "9876543210", Pincode: "060001"},
			wantErr: true,
			field:   "Pincode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			valErr, ok := err.(*ValidationError)
			require.True(t, ok)
			assert.Contains(t, valErr.Fields(), tt.field)
		})
	}
}

func TestValidationErrorFields(t *testing.T) {
	err := Validate(shippingAddress{})
	require.Error(t, err)

	valErr, ok := err.(*ValidationError)
	require.True(t, ok)

	fields := valErr.Fields()
	assert.Len(t, fields, 3)
	assert.Equal(t, "is required", fields["Name"])
}
