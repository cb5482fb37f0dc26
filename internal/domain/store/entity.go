// internal/domain/store/entity.go
package store

import (
	"time"

	"gorm.io/gorm"
)

// Store is the tenant root. Every tenant-scoped entity carries its id as
// store_id. Stores are soft-deleted so historical orders stay auditable.
type Store struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Code      string         `gorm:"uniqueIndex;not null;size:50" json:"code"` // request-resolution slug
	Currency  string         `gorm:"size:3;default:'USD'" json:"currency"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Store) TableName() string {
	return "stores"
}
