package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
)

func TestComputeTotal(t *testing.T) {
	o := Order{
		Subtotal:       10000,
		TaxAmount:      800,
		ShippingAmount: 500,
		DiscountAmount: 1000,
	}
	assert.Equal(t, int64(10300), o.ComputeTotal())
}

func TestRecalculateTotals(t *testing.T) {
	o := Order{TaxAmount: 100, ShippingAmount: 200, DiscountAmount: 50}
	items := []OrderItem{
		{Quantity: 2, Price: 5000},
		{Quantity: 1, Price: 2500},
	}

	o.RecalculateTotals(items)

	assert.Equal(t, int64(12500), o.Subtotal)
	assert.Equal(t, int64(12500+100+200-50), o.Total)

	o.RecalculateTotals(nil)
	assert.Equal(t, int64(0), o.Subtotal)
	assert.Equal(t, int64(250), o.Total)
}

func TestOrderItemValidate(t *testing.T) {
	valid := OrderItem{Quantity: 1, Price: 0}
	assert.NoError(t, valid.Validate())

	valid = OrderItem{Quantity: MaxItemQuantity, Price: MaxItemPrice}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		item OrderItem
	}{
		{"zero quantity", OrderItem{Quantity: 0, Price: 100}},
		{"negative quantity", OrderItem{Quantity: -1, Price: 100}},
		{"quantity over limit", OrderItem{Quantity: MaxItemQuantity + 1, Price: 100}},
		{"negative price", OrderItem{Quantity: 1, Price: -1}},
		{"price over limit", OrderItem{Quantity: 1, Price: MaxItemPrice + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}
}

func TestAddressIsZero(t *testing.T) {
	assert.True(t, Address{}.IsZero())
	assert.False(t, Address{City: "Portland"}.IsZero())
}
