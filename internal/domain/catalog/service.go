// internal/domain/catalog/service.go
package catalog

import (
	"context"

	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/tenant"
	"gorm.io/gorm"
)

// Service exposes catalog reads for the storefront and the snapshot lookups
// the cart and checkout flows depend on.
type Service struct {
	db *gorm.DB
}

// NewService creates a new catalog service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListProducts returns active products for the store with their variants.
func (s *Service) ListProducts(ctx context.Context, tc tenant.Context, limit, offset int) ([]Product, int64, error) {
	if err := tc.Require(); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	query := s.db.WithContext(ctx).Model(&Product{}).Scopes(tenant.Scope(tc)).Where("is_active = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	var products []Product
	err := query.
		Preload("Variants", "is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	return products, total, nil
}

// GetProduct returns one active product by slug.
func (s *Service) GetProduct(ctx context.Context, tc tenant.Context, slug string) (*Product, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	var product Product
	result := s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).
		Where("slug = ? AND is_active = ?", slug, true).
		Preload("Variants", "is_active = ?", true).
		First(&product)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("catalog/product_not_found", "product %q not found", slug)
		}
		return nil, apperrors.Internal(result.Error)
	}

	return &product, nil
}

// GetVariant loads an active variant with its product, verifying both belong
// to the store. Used by the cart when adding items.
func (s *Service) GetVariant(ctx context.Context, tc tenant.Context, variantID uint) (*ProductVariant, *Product, error) {
	if err := tc.Require(); err != nil {
		return nil, nil, err
	}

	var variant ProductVariant
	result := s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).
		Where("id = ? AND is_active = ?", variantID, true).
		First(&variant)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil, apperrors.NotFound("catalog/variant_not_found", "variant %d not found", variantID)
		}
		return nil, nil, apperrors.Internal(result.Error)
	}

	var product Product
	result = s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).
		Where("id = ? AND is_active = ?", variant.ProductID, true).
		First(&product)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil, apperrors.NotFound("catalog/product_not_found", "product %d not found", variant.ProductID)
		}
		return nil, nil, apperrors.Internal(result.Error)
	}

	return &variant, &product, nil
}
