// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
)

// Cart status
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusExpired   = "expired"
)

// Cart is the pre-order container for a guest session or a user. Exactly one
// of UserID/SessionID is set. Carts are consumed by checkout (completed) or
// by the sweeper (expired); they are never reactivated.
type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StoreID   uint      `gorm:"not null;index" json:"store_id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	SessionID *string   `gorm:"size:100;index" json:"session_id,omitempty"`
	Status    string    `gorm:"size:20;not null;default:'active';index" json:"status"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// CartItem is a priced line in a cart. UnitPrice is captured when the item is
// added; adding the same variant again increments Quantity instead of
// creating a second row.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;index" json:"cart_id"`
	StoreID   uint      `gorm:"not null;index" json:"store_id"`
	ProductID uint      `gorm:"not null" json:"product_id"`
	VariantID *uint     `json:"variant_id,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for Cart
func (Cart) TableName() string {
	return "carts"
}

// TableName overrides the table name for CartItem
func (CartItem) TableName() string {
	return "cart_items"
}

// ValidateOwner enforces that exactly one of user/session owns the cart.
func (c *Cart) ValidateOwner() error {
	hasUser := c.UserID != nil && *c.UserID != 0
	hasSession := c.SessionID != nil && *c.SessionID != ""
	if hasUser == hasSession {
		return apperrors.Validation("cart/invalid_owner", "cart must belong to exactly one of user or session")
	}
	return nil
}

// IsExpired reports whether the cart's deadline has passed.
func (c *Cart) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsActive reports whether the cart can still be mutated.
func (c *Cart) IsActive(now time.Time) bool {
	return c.Status == StatusActive && !c.IsExpired(now)
}

// Subtotal sums price x quantity over all items.
func (c *Cart) Subtotal() int64 {
	var subtotal int64
	for _, item := range c.Items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}
	return subtotal
}

// ItemCount sums quantities over all items.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

type lineKey struct {
	productID uint
	variantID uint
}

func keyOf(item CartItem) lineKey {
	k := lineKey{productID: item.ProductID}
	if item.VariantID != nil {
		k.variantID = *item.VariantID
	}
	return k
}

// mergePlan describes how a guest cart folds into a user cart: guest items
// matching an existing user line add their quantity to it; the rest move to
// the user cart as-is.
type mergePlan struct {
	// increments maps a user cart item id to the quantity to add to it.
	increments map[uint]int
	// moves lists guest cart item ids to reassign to the user cart.
	moves []uint
}

func planMerge(userItems, guestItems []CartItem) mergePlan {
	byLine := make(map[lineKey]uint, len(userItems))
	for _, item := range userItems {
		byLine[keyOf(item)] = item.ID
	}

	plan := mergePlan{increments: make(map[uint]int)}
	for _, item := range guestItems {
		if targetID, ok := byLine[keyOf(item)]; ok {
			plan.increments[targetID] += item.Quantity
		} else {
			plan.moves = append(plan.moves, item.ID)
		}
	}
	return plan
}
