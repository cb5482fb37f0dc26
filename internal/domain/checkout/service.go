// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/tenant"
	"gorm.io/gorm"
)

// Service converts an active cart into an order atomically: item snapshots,
// totals, the order number, the initial history entry and the cart's
// completion all commit together or not at all.
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
	carts  *cart.Service
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, logger *logrus.Logger, carts *cart.Service) *Service {
	return &Service{
		db:     db,
		logger: logger,
		carts:  carts,
	}
}

// Request represents a checkout submission
type Request struct {
	Email                string         `json:"email" binding:"required,email"`
	ShippingAddress      order.Address  `json:"shipping_address" binding:"required"`
	BillingAddress       *order.Address `json:"billing_address"`
	UseShippingAsBilling bool           `json:"use_shipping_as_billing"`
	Notes                string         `json:"notes"`
}

// resolveBilling picks the billing snapshot: explicit billing address unless
// the caller asked to reuse shipping or supplied nothing.
func resolveBilling(shipping order.Address, billing *order.Address, useShipping bool) order.Address {
	if useShipping || billing == nil || billing.IsZero() {
		return shipping
	}
	return *billing
}

// Checkout converts the owner's active cart into a pending order.
func (s *Service) Checkout(ctx context.Context, tc tenant.Context, owner cart.Owner, req *Request) (*order.Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, apperrors.Validation("checkout/email_required", "an email address is required")
	}
	if req.ShippingAddress.IsZero() {
		return nil, apperrors.Validation("checkout/shipping_address_required", "a shipping address is required")
	}

	var o *order.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.carts.ActiveCartForUpdate(tx, tc, owner)
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return apperrors.Validation("checkout/empty_cart", "cart has no items")
		}

		items, err := s.snapshotItems(tx, tc, c.Items)
		if err != nil {
			return err
		}

		number, err := order.NextOrderNumber(tx)
		if err != nil {
			return err
		}

		o = &order.Order{
			StoreID:      tc.StoreID,
			OrderNumber:  number,
			UserID:       c.UserID,
			Email:        req.Email,
			Status:       order.StatusPending,
			Notes:        req.Notes,
			ShippingAddr: req.ShippingAddress,
			BillingAddr:  resolveBilling(req.ShippingAddress, req.BillingAddress, req.UseShippingAsBilling),
		}
		o.RecalculateTotals(items)
		if err := tx.Create(o).Error; err != nil {
			// Two concurrent checkouts can compute the same order number;
			// the unique index backstops the race and the loser retries.
			if isDuplicateKey(err) {
				return apperrors.Conflict("checkout/order_number_conflict", "order number %s was taken concurrently, retry checkout", number)
			}
			return apperrors.Internal(err)
		}

		for i := range items {
			items[i].OrderID = o.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return apperrors.Internal(err)
		}
		o.Items = items

		history := order.NewInitialHistory(o, tc.ActorID)
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Internal(err)
		}

		return s.carts.Complete(tx, c.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"total":        o.Total,
	}).Info("order created from cart")

	return o, nil
}

// isDuplicateKey reports whether err is a unique-constraint violation.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// snapshotItems freezes cart lines into order items. Names, SKUs and variant
// descriptors come from the live catalog rows so the order stays correct
// even after later catalog edits; prices stay as captured at add-to-cart
// time.
func (s *Service) snapshotItems(tx *gorm.DB, tc tenant.Context, lines []cart.CartItem) ([]order.OrderItem, error) {
	items := make([]order.OrderItem, 0, len(lines))
	for _, line := range lines {
		var product catalog.Product
		result := tx.Scopes(tenant.Scope(tc)).First(&product, line.ProductID)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				return nil, apperrors.Conflict("checkout/item_unavailable", "product %d is no longer available", line.ProductID)
			}
			return nil, apperrors.Internal(result.Error)
		}

		item := order.OrderItem{
			StoreID:   tc.StoreID,
			ProductID: product.ID,
			VariantID: line.VariantID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		}

		if line.VariantID != nil {
			var variant catalog.ProductVariant
			result := tx.Scopes(tenant.Scope(tc)).First(&variant, *line.VariantID)
			if result.Error != nil {
				if result.Error == gorm.ErrRecordNotFound {
					return nil, apperrors.Conflict("checkout/item_unavailable", "variant %d is no longer available", *line.VariantID)
				}
				return nil, apperrors.Internal(result.Error)
			}
			item.SKU = variant.SKU
			item.VariantAttributes = variant.Attributes
			if variant.Name != "" {
				item.Name = product.Name + " - " + variant.Name
			}
		}

		if err := item.Validate(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
