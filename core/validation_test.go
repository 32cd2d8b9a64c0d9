package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name    string
		product *Product
		wantErr error
	}{
		{
			name:    "valid product",
			product: &Product{Id: "sku-1", Description: "Blue running shoes"},
			wantErr: nil,
		},
		{
			name:    "nil product",
			product: nil,
			wantErr: ErrInvalidProduct,
		},
		{
			name:    "empty id",
			product: &Product{Description: "Blue running shoes"},
			wantErr: ErrEmptyID,
		},
		{
			name:    "empty description",
			product: &Product{Id: "sku-1"},
			wantErr: ErrEmptyDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProduct(tt.product)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidProduct)
		})
	}
}

func TestValidateProductAfterNormalize(t *testing.T) {
	// A normalized product is always valid, whatever the source row held.
	p := &Product{}
	p.Normalize()
	require.NoError(t, ValidateProduct(p))
}
