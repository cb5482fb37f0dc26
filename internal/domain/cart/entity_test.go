package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
)

func uintPtr(v uint) *uint    { return &v }
func strPtr(v string) *string { return &v }

func TestValidateOwner(t *testing.T) {
	tests := []struct {
		name    string
		cart    Cart
		wantErr bool
	}{
		{"user only", Cart{UserID: uintPtr(1)}, false},
		{"session only", Cart{SessionID: strPtr("sess-1")}, false},
		{"both set", Cart{UserID: uintPtr(1), SessionID: strPtr("sess-1")}, true},
		{"neither set", Cart{}, true},
		{"zero user", Cart{UserID: uintPtr(0)}, true},
		{"empty session", Cart{SessionID: strPtr("")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cart.ValidateOwner()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCartExpiry(t *testing.T) {
	now := time.Now().UTC()

	c := Cart{Status: StatusActive, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, c.IsExpired(now))
	assert.True(t, c.IsActive(now))

	c.ExpiresAt = now.Add(-time.Minute)
	assert.True(t, c.IsExpired(now))
	assert.False(t, c.IsActive(now))

	c.Status = StatusCompleted
	c.ExpiresAt = now.Add(time.Hour)
	assert.False(t, c.IsActive(now))
}

func TestSubtotalAndItemCount(t *testing.T) {
	c := Cart{Items: []CartItem{
		{Quantity: 2, UnitPrice: 5000},
		{Quantity: 3, UnitPrice: 1250},
	}}

	assert.Equal(t, int64(2*5000+3*1250), c.Subtotal())
	assert.Equal(t, 5, c.ItemCount())

	empty := Cart{}
	assert.Equal(t, int64(0), empty.Subtotal())
	assert.Equal(t, 0, empty.ItemCount())
}

func TestPlanMergeSumsMatchingLines(t *testing.T) {
	userItems := []CartItem{
		{ID: 10, ProductID: 1, VariantID: uintPtr(100), Quantity: 3},
	}
	guestItems := []CartItem{
		{ID: 20, ProductID: 1, VariantID: uintPtr(100), Quantity: 2},
		{ID: 21, ProductID: 2, VariantID: uintPtr(200), Quantity: 3},
	}

	plan := planMerge(userItems, guestItems)

	assert.Equal(t, map[uint]int{10: 2}, plan.increments)
	assert.Equal(t, []uint{21}, plan.moves)
}

func TestPlanMergeDistinguishesVariants(t *testing.T) {
	userItems := []CartItem{
		{ID: 10, ProductID: 1, VariantID: uintPtr(100), Quantity: 1},
	}
	guestItems := []CartItem{
		{ID: 20, ProductID: 1, VariantID: uintPtr(101), Quantity: 1},
	}

	plan := planMerge(userItems, guestItems)

	assert.Empty(t, plan.increments)
	assert.Equal(t, []uint{20}, plan.moves)
}

func TestPlanMergeEmptyGuest(t *testing.T) {
	plan := planMerge([]CartItem{{ID: 1, ProductID: 1, Quantity: 1}}, nil)
	assert.Empty(t, plan.increments)
	assert.Empty(t, plan.moves)
}
