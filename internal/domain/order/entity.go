// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Item bounds
const (
	MaxItemQuantity = 999
	MaxItemPrice    = 99_999_999 // cents
)

// Address is a frozen address snapshot embedded on the order. It is copied
// from checkout input, never referenced, so later edits cannot rewrite
// history.
type Address struct {
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2" json:"country"`
	Phone        string `gorm:"size:20" json:"phone"`
}

// IsZero reports whether no address was supplied.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Order is a committed purchase: immutable item snapshots plus a status that
// advances through the transition table in status.go. Amounts are cents.
type Order struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	StoreID        uint    `gorm:"not null;index" json:"store_id"`
	OrderNumber    string  `gorm:"uniqueIndex;not null;size:32" json:"order_number"`
	UserID         *uint   `gorm:"index" json:"user_id,omitempty"`
	Email          string  `gorm:"not null;size:255" json:"email"`
	Status         Status  `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Subtotal       int64   `gorm:"not null" json:"subtotal"`
	TaxAmount      int64   `gorm:"not null;default:0" json:"tax_amount"`
	ShippingAmount int64   `gorm:"not null;default:0" json:"shipping_amount"`
	DiscountAmount int64   `gorm:"not null;default:0" json:"discount_amount"`
	Total          int64   `gorm:"not null" json:"total"`
	Notes          string  `gorm:"type:text" json:"notes"`
	ShippingAddr   Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddr    Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	PaidAt      *time.Time `json:"paid_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is a frozen product snapshot. ProductID/VariantID are references
// for reporting, not live links; Name/SKU/ImageURL/VariantAttributes carry
// what the customer actually bought.
type OrderItem struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	OrderID           uint              `gorm:"not null;index" json:"order_id"`
	StoreID           uint              `gorm:"not null;index" json:"store_id"`
	ProductID         uint              `gorm:"not null" json:"product_id"`
	VariantID         *uint             `json:"variant_id,omitempty"`
	Name              string            `gorm:"not null;size:255" json:"name"`
	SKU               string            `gorm:"size:100" json:"sku"`
	ImageURL          string            `gorm:"size:500" json:"image_url"`
	VariantAttributes datatypes.JSONMap `gorm:"type:jsonb" json:"variant_attributes"`
	Quantity          int               `gorm:"not null" json:"quantity"`
	Price             int64             `gorm:"not null" json:"price"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
}

// OrderStatusHistory is the append-only transition ledger. PreviousStatus is
// null only on the first entry. Metadata carries transition extras such as
// the tracking number and carrier for shipments. Rows are never mutated
// after insert except to flip the notification flag.
type OrderStatusHistory struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	OrderID          uint           `gorm:"not null;index" json:"order_id"`
	StoreID          uint           `gorm:"not null;index" json:"store_id"`
	PreviousStatus   *Status        `gorm:"size:20" json:"previous_status"`
	NewStatus        Status         `gorm:"size:20;not null" json:"new_status"`
	Notes            string         `gorm:"type:text" json:"notes"`
	Reason           string         `gorm:"size:255" json:"reason"`
	Metadata         datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedBy        *uint          `json:"created_by"` // null = system
	CustomerNotified bool           `gorm:"default:false" json:"customer_notified"`
	NotifiedAt       *time.Time     `json:"notified_at"`
	CreatedAt        time.Time      `json:"created_at"`
}

// TableName overrides the table name for Order
func (Order) TableName() string {
	return "orders"
}

// TableName overrides the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// TableName overrides the table name for OrderStatusHistory
func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}

// ComputeTotal derives the order total from its components.
func (o *Order) ComputeTotal() int64 {
	return o.Subtotal + o.TaxAmount + o.ShippingAmount - o.DiscountAmount
}

// RecalculateTotals rederives subtotal and total from the given items.
func (o *Order) RecalculateTotals(items []OrderItem) {
	var subtotal int64
	for _, item := range items {
		subtotal += item.Price * int64(item.Quantity)
	}
	o.Subtotal = subtotal
	o.Total = o.ComputeTotal()
}

// CanBeCancelled reports whether the order is still in the cancellable set.
func (o *Order) CanBeCancelled() bool {
	return o.Status.IsCancellable()
}

// Validate checks item bounds before persistence.
func (i *OrderItem) Validate() error {
	if i.Quantity < 1 || i.Quantity > MaxItemQuantity {
		return apperrors.Validation("order/invalid_item_quantity", "item quantity must be between 1 and %d", MaxItemQuantity)
	}
	if i.Price < 0 || i.Price > MaxItemPrice {
		return apperrors.Validation("order/invalid_item_price", "item price must be between 0 and %d cents", MaxItemPrice)
	}
	return nil
}

// LineTotal returns price x quantity.
func (i *OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}
