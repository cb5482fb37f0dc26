// internal/domain/payment/entity.go
package payment

import (
	"time"

	"gorm.io/gorm"
)

// Payment status
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
	StatusRefunded = "refunded"
)

// Payment method kinds
const (
	MethodBankTransfer = "bank_transfer"
	MethodCOD          = "cod"
	MethodWallet       = "wallet"
)

// Verification actions
const (
	ActionVerified = "verified"
	ActionRejected = "rejected"
)

// Triage priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Triage thresholds. Amounts are cents.
const (
	highPriorityAge      = 72 * time.Hour
	mediumPriorityAge    = 24 * time.Hour
	attentionAge         = 48 * time.Hour
	highPriorityAmount   = 50_000
	mediumPriorityAmount = 10_000
	attentionAmount      = 30_000
)

// PaymentMethod is an offline payment channel a store accepts. Payments
// reference it; reports against another store's method are rejected.
type PaymentMethod struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	StoreID      uint           `gorm:"not null;index" json:"store_id"`
	Name         string         `gorm:"not null;size:100" json:"name"`
	Kind         string         `gorm:"not null;size:30" json:"kind"`
	Instructions string         `gorm:"type:text" json:"instructions"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Payment is a customer's claim of having paid part of an order's balance,
// pending administrative confirmation. Amount is cents. Status only moves
// pending → verified/rejected through the service; verified and rejected
// are terminal.
type Payment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	StoreID          uint       `gorm:"not null;index" json:"store_id"`
	OrderID          uint       `gorm:"not null;index" json:"order_id"`
	PaymentMethodID  uint       `gorm:"not null" json:"payment_method_id"`
	Amount           int64      `gorm:"not null" json:"amount"`
	ReferenceNumber  string     `gorm:"uniqueIndex;not null;size:50" json:"reference_number"`
	ReceiptReference string     `gorm:"size:255" json:"receipt_reference"`
	Status           string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaidAt           *time.Time `json:"paid_at"`
	VerifiedAt       *time.Time `json:"verified_at"`
	VerifiedBy       *uint      `json:"verified_by"`
	RejectedAt       *time.Time `json:"rejected_at"`
	RejectedBy       *uint      `json:"rejected_by"`
	RejectionReason  string     `gorm:"size:255" json:"rejection_reason"`
	AdminNotes       string     `gorm:"type:text" json:"admin_notes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PaymentVerification is the append-only ledger of administrative actions on
// a payment. The newest entry reflects the payment's current disposition.
type PaymentVerification struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StoreID         uint      `gorm:"not null;index" json:"store_id"`
	PaymentID       uint      `gorm:"not null;index" json:"payment_id"`
	UserID          uint      `gorm:"not null" json:"user_id"`
	Action          string    `gorm:"not null;size:20" json:"action"`
	Notes           string    `gorm:"type:text" json:"notes"`
	RejectionReason string    `gorm:"size:255" json:"rejection_reason"`
	ActionedAt      time.Time `gorm:"not null" json:"actioned_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName overrides the table name for PaymentMethod
func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// TableName overrides the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// TableName overrides the table name for PaymentVerification
func (PaymentVerification) TableName() string {
	return "payment_verifications"
}

// PendingAge returns how long the payment has been waiting for review.
func (p *Payment) PendingAge(now time.Time) time.Duration {
	return now.Sub(p.CreatedAt)
}

// Priority classifies a pending payment for admin triage. Computed from
// (created_at, amount), never stored.
func (p *Payment) Priority(now time.Time) string {
	age := p.PendingAge(now)
	switch {
	case age >= highPriorityAge || p.Amount >= highPriorityAmount:
		return PriorityHigh
	case age >= mediumPriorityAge || p.Amount >= mediumPriorityAmount:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// RequiresAttention flags payments an admin should look at soon.
func (p *Payment) RequiresAttention(now time.Time) bool {
	return p.PendingAge(now) >= attentionAge || p.Amount >= attentionAmount
}

// IsPending reports whether administrative action is still possible.
func (p *Payment) IsPending() bool {
	return p.Status == StatusPending
}
