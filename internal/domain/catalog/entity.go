// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product is a sellable item in a store's catalog. Prices live on variants;
// every product has at least one variant (a default one when the product has
// no options).
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	StoreID     uint           `gorm:"not null;index;uniqueIndex:idx_products_store_slug" json:"store_id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"not null;size:255;uniqueIndex:idx_products_store_slug" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// ProductVariant is a purchasable variation of a product. Price is in the
// store currency's minor unit (cents). Attributes holds the option values
// that distinguish this variant, e.g. {"size": "M", "color": "black"}.
type ProductVariant struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	StoreID    uint              `gorm:"not null;index;uniqueIndex:idx_variants_store_sku" json:"store_id"`
	ProductID  uint              `gorm:"not null;index" json:"product_id"`
	SKU        string            `gorm:"not null;size:100;uniqueIndex:idx_variants_store_sku" json:"sku"`
	Name       string            `gorm:"size:255" json:"name"`
	Price      int64             `gorm:"not null" json:"price"`
	Attributes datatypes.JSONMap `gorm:"type:jsonb" json:"attributes"`
	IsActive   bool              `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  gorm.DeletedAt    `gorm:"index" json:"-"`
}

// TableName overrides the table name for Product
func (Product) TableName() string {
	return "products"
}

// TableName overrides the table name for ProductVariant
func (ProductVariant) TableName() string {
	return "product_variants"
}

// DisplayName returns the variant name, falling back to the SKU.
func (v *ProductVariant) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	return v.SKU
}
