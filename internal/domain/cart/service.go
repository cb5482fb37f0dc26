// internal/domain/cart/service.go
package cart

import (
	"context"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Owner identifies who a cart request acts for: an authenticated user or a
// guest session. Exactly one side is set.
type Owner struct {
	UserID    *uint
	SessionID string
}

func (o Owner) column() (string, interface{}) {
	if o.UserID != nil {
		return "user_id = ?", *o.UserID
	}
	return "session_id = ?", o.SessionID
}

func (o Owner) validate() error {
	hasUser := o.UserID != nil && *o.UserID != 0
	hasSession := o.SessionID != ""
	if hasUser == hasSession {
		return apperrors.Validation("cart/invalid_owner", "request must carry exactly one of user or session identity")
	}
	return nil
}

// Service handles cart business logic
type Service struct {
	db      *gorm.DB
	config  *config.Config
	catalog *catalog.Service
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config, catalogService *catalog.Service) *Service {
	return &Service{
		db:      db,
		config:  cfg,
		catalog: catalogService,
	}
}

// AddItemRequest represents an add-to-cart request
type AddItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// Get returns the owner's active, unexpired cart with items.
func (s *Service) Get(ctx context.Context, tc tenant.Context, owner Owner) (*Cart, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	if err := owner.validate(); err != nil {
		return nil, err
	}
	return s.activeCart(s.db.WithContext(ctx), tc, owner, true)
}

// AddItem adds a variant to the owner's cart, creating the cart on first
// use. Adding a variant already in the cart increments its quantity. The
// unit price is captured from the catalog at add time.
func (s *Service) AddItem(ctx context.Context, tc tenant.Context, owner Owner, req *AddItemRequest) (*Cart, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperrors.Validation("cart/invalid_quantity", "quantity must be positive")
	}

	variant, product, err := s.catalog.GetVariant(ctx, tc, req.VariantID)
	if err != nil {
		return nil, err
	}

	var cartID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.activeCartForUpdate(tx, tc, owner)
		if err != nil {
			if !apperrors.IsKind(err, apperrors.KindNotFound) {
				return err
			}
			c, err = s.createCart(tx, tc, owner)
			if err != nil {
				return err
			}
		}
		cartID = c.ID

		variantID := variant.ID
		var existing CartItem
		result := tx.Where("cart_id = ? AND product_id = ? AND variant_id = ?", c.ID, product.ID, variantID).
			First(&existing)
		switch {
		case result.Error == nil:
			if err := tx.Model(&existing).
				Update("quantity", gorm.Expr("quantity + ?", req.Quantity)).Error; err != nil {
				return apperrors.Internal(err)
			}
		case result.Error == gorm.ErrRecordNotFound:
			item := CartItem{
				CartID:    c.ID,
				StoreID:   tc.StoreID,
				ProductID: product.ID,
				VariantID: &variantID,
				Quantity:  req.Quantity,
				UnitPrice: variant.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return apperrors.Internal(err)
			}
		default:
			return apperrors.Internal(result.Error)
		}

		return s.touch(tx, c.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, tc, cartID)
}

// UpdateItem sets the quantity of a cart item.
func (s *Service) UpdateItem(ctx context.Context, tc tenant.Context, owner Owner, itemID uint, quantity int) (*Cart, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, apperrors.Validation("cart/invalid_quantity", "quantity must be positive")
	}

	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.activeCartForUpdate(tx, tc, owner)
		if err != nil {
			return err
		}
		cartID = c.ID

		result := tx.Model(&CartItem{}).
			Where("id = ? AND cart_id = ?", itemID, c.ID).
			Update("quantity", quantity)
		if result.Error != nil {
			return apperrors.Internal(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("cart/item_not_found", "cart item %d not found", itemID)
		}

		return s.touch(tx, c.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, tc, cartID)
}

// RemoveItem deletes a cart item.
func (s *Service) RemoveItem(ctx context.Context, tc tenant.Context, owner Owner, itemID uint) (*Cart, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	if err := owner.validate(); err != nil {
		return nil, err
	}

	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.activeCartForUpdate(tx, tc, owner)
		if err != nil {
			return err
		}
		cartID = c.ID

		result := tx.Where("id = ? AND cart_id = ?", itemID, c.ID).Delete(&CartItem{})
		if result.Error != nil {
			return apperrors.Internal(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("cart/item_not_found", "cart item %d not found", itemID)
		}

		return s.touch(tx, c.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, tc, cartID)
}

// MergeGuestCart folds a guest session's cart into the user's cart in one
// transaction. Lines with the same product and variant sum quantities; the
// rest move over. The guest cart ends completed and empty.
func (s *Service) MergeGuestCart(ctx context.Context, tc tenant.Context, userID uint, sessionID string) (*Cart, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	if userID == 0 || sessionID == "" {
		return nil, apperrors.Validation("cart/invalid_merge", "merge requires both a user and a guest session")
	}

	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guest, err := s.activeCartForUpdate(tx, tc, Owner{SessionID: sessionID})
		if err != nil {
			return err
		}

		userCart, err := s.activeCartForUpdate(tx, tc, Owner{UserID: &userID})
		if err != nil {
			if !apperrors.IsKind(err, apperrors.KindNotFound) {
				return err
			}
			userCart, err = s.createCart(tx, tc, Owner{UserID: &userID})
			if err != nil {
				return err
			}
		}
		cartID = userCart.ID

		var userItems, guestItems []CartItem
		if err := tx.Where("cart_id = ?", userCart.ID).Find(&userItems).Error; err != nil {
			return apperrors.Internal(err)
		}
		if err := tx.Where("cart_id = ?", guest.ID).Find(&guestItems).Error; err != nil {
			return apperrors.Internal(err)
		}

		plan := planMerge(userItems, guestItems)
		for targetID, add := range plan.increments {
			if err := tx.Model(&CartItem{}).Where("id = ?", targetID).
				Update("quantity", gorm.Expr("quantity + ?", add)).Error; err != nil {
				return apperrors.Internal(err)
			}
		}
		if len(plan.moves) > 0 {
			if err := tx.Model(&CartItem{}).Where("id IN ?", plan.moves).
				Update("cart_id", userCart.ID).Error; err != nil {
				return apperrors.Internal(err)
			}
		}

		// Absorbed lines are gone; moved lines already belong to the user cart.
		if err := tx.Where("cart_id = ?", guest.ID).Delete(&CartItem{}).Error; err != nil {
			return apperrors.Internal(err)
		}
		if err := tx.Model(&Cart{}).Where("id = ?", guest.ID).
			Update("status", StatusCompleted).Error; err != nil {
			return apperrors.Internal(err)
		}

		return s.touch(tx, userCart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, tc, cartID)
}

// Complete marks a cart consumed by checkout. Must run inside the caller's
// transaction.
func (s *Service) Complete(tx *gorm.DB, cartID uint) error {
	result := tx.Model(&Cart{}).
		Where("id = ? AND status = ?", cartID, StatusActive).
		Update("status", StatusCompleted)
	if result.Error != nil {
		return apperrors.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("cart/already_consumed", "cart %d is no longer active", cartID)
	}
	return nil
}

// ActiveCartForUpdate exposes the locked active-cart lookup to the checkout
// engine, which drives its own transaction.
func (s *Service) ActiveCartForUpdate(tx *gorm.DB, tc tenant.Context, owner Owner) (*Cart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	c, err := s.activeCartForUpdate(tx, tc, owner)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("cart_id = ?", c.ID).Order("id").Find(&c.Items).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return c, nil
}

func (s *Service) activeCart(db *gorm.DB, tc tenant.Context, owner Owner, withItems bool) (*Cart, error) {
	cond, arg := owner.column()
	query := db.Scopes(tenant.Scope(tc)).
		Where(cond, arg).
		Where("status = ? AND expires_at > ?", StatusActive, time.Now().UTC())
	if withItems {
		query = query.Preload("Items")
	}

	var c Cart
	result := query.Order("id DESC").First(&c)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("cart/no_active_cart", "no active cart")
		}
		return nil, apperrors.Internal(result.Error)
	}
	return &c, nil
}

func (s *Service) activeCartForUpdate(tx *gorm.DB, tc tenant.Context, owner Owner) (*Cart, error) {
	cond, arg := owner.column()

	var c Cart
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(tc)).
		Where(cond, arg).
		Where("status = ? AND expires_at > ?", StatusActive, time.Now().UTC()).
		Order("id DESC").First(&c)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("cart/no_active_cart", "no active cart")
		}
		return nil, apperrors.Internal(result.Error)
	}
	return &c, nil
}

func (s *Service) createCart(tx *gorm.DB, tc tenant.Context, owner Owner) (*Cart, error) {
	c := Cart{
		StoreID:   tc.StoreID,
		UserID:    owner.UserID,
		Status:    StatusActive,
		ExpiresAt: time.Now().UTC().Add(s.config.Cart.TTL),
	}
	if owner.SessionID != "" {
		sid := owner.SessionID
		c.SessionID = &sid
	}
	if err := c.ValidateOwner(); err != nil {
		return nil, err
	}
	if err := tx.Create(&c).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &c, nil
}

// touch extends the cart deadline; every mutation keeps an in-use cart alive.
func (s *Service) touch(tx *gorm.DB, cartID uint) error {
	err := tx.Model(&Cart{}).Where("id = ?", cartID).
		Update("expires_at", time.Now().UTC().Add(s.config.Cart.TTL)).Error
	if err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, tc tenant.Context, cartID uint) (*Cart, error) {
	var c Cart
	result := s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).
		Preload("Items").First(&c, cartID)
	if result.Error != nil {
		return nil, apperrors.Internal(result.Error)
	}
	return &c, nil
}
