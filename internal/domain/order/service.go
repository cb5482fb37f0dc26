// internal/domain/order/service.go
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
	"github.com/your-org/storefront-backend/internal/pkg/tenant"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service drives the order lifecycle: reads, the status transition engine,
// and admin item mutations. Every transition runs in one transaction holding
// a row lock on the order, which serializes history writes per order.
type Service struct {
	db       *gorm.DB
	logger   *logrus.Logger
	notifier notify.Notifier
}

// NewService creates a new order service
func NewService(db *gorm.DB, logger *logrus.Logger, notifier notify.Notifier) *Service {
	return &Service{
		db:       db,
		logger:   logger,
		notifier: notifier,
	}
}

// TransitionRequest carries an admin status update.
type TransitionRequest struct {
	Status         Status `json:"status" binding:"required"`
	Notes          string `json:"notes"`
	Reason         string `json:"reason"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

// TransitionOptions parameterizes ApplyTransition.
type TransitionOptions struct {
	Notes          string
	Reason         string
	TrackingNumber string
	Carrier        string
	ActorID        *uint // nil = system
}

// ItemRequest carries an admin order-item mutation.
type ItemRequest struct {
	ProductID uint              `json:"product_id" binding:"required"`
	VariantID *uint             `json:"variant_id"`
	Name      string            `json:"name" binding:"required"`
	SKU       string            `json:"sku"`
	ImageURL  string            `json:"image_url"`
	Variant   map[string]string `json:"variant"`
	Quantity  int               `json:"quantity" binding:"required"`
	Price     int64             `json:"price"`
}

// NextOrderNumber generates the next ORD-YYYYMMDD-NNNNNN number. Call inside
// the transaction that creates the order; the unique index backstops races.
func NextOrderNumber(tx *gorm.DB) (string, error) {
	prefix := "ORD-" + time.Now().UTC().Format("20060102")
	var count int64
	err := tx.Model(&Order{}).Unscoped().
		Where("order_number LIKE ?", prefix+"-%").
		Count(&count).Error
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return fmt.Sprintf("%s-%06d", prefix, count+1), nil
}

// NewInitialHistory builds the first ledger entry for a freshly created
// order. PreviousStatus stays null only here.
func NewInitialHistory(o *Order, createdBy *uint) OrderStatusHistory {
	return OrderStatusHistory{
		OrderID:   o.ID,
		StoreID:   o.StoreID,
		NewStatus: o.Status,
		Notes:     "order created",
		CreatedBy: createdBy,
	}
}

// ApplyTransition validates and executes current → next on an order the
// caller has already loaded under a row lock inside tx. It stamps the
// status timestamp, appends the history entry and returns the notification
// intent to emit after commit (nil for silent transitions). o.Status is
// updated in place on success.
func ApplyTransition(tx *gorm.DB, o *Order, next Status, opts TransitionOptions) (*notify.Intent, error) {
	if err := validateTransition(o.Status, next); err != nil {
		return nil, err
	}

	var metadata datatypes.JSON
	if next == StatusShipped {
		if opts.TrackingNumber == "" || opts.Carrier == "" {
			return nil, apperrors.Validation("order/shipment_details_required", "shipping an order requires a tracking number and carrier")
		}
		raw, err := json.Marshal(map[string]string{
			"tracking_number": opts.TrackingNumber,
			"carrier":         opts.Carrier,
		})
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		metadata = raw
	}

	// Capture before the update: gorm's map Updates writes the new values
	// back into o, so reading o.Status afterwards would yield next.
	previous := o.Status

	now := time.Now().UTC()
	updates := map[string]interface{}{"status": next}
	if col := next.timestampColumn(); col != "" {
		updates[col] = now
	}
	if err := tx.Model(o).Updates(updates).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	history := OrderStatusHistory{
		OrderID:        o.ID,
		StoreID:        o.StoreID,
		PreviousStatus: &previous,
		NewStatus:      next,
		Notes:          opts.Notes,
		Reason:         opts.Reason,
		Metadata:       metadata,
		CreatedBy:      opts.ActorID,
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	o.Status = next

	if event := next.notifiableEvent(); event != "" {
		return &notify.Intent{
			Event:       event,
			StoreID:     o.StoreID,
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Email:       o.Email,
		}, nil
	}
	return nil, nil
}

// LockForUpdate loads a tenant-scoped order under FOR UPDATE inside tx.
func LockForUpdate(tx *gorm.DB, tc tenant.Context, orderID uint) (*Order, error) {
	var o Order
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(tc)).
		First(&o, orderID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("order/not_found", "order %d not found", orderID)
		}
		return nil, apperrors.Internal(result.Error)
	}
	if err := tc.Owns(o.StoreID); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus executes an admin-driven transition.
func (s *Service) UpdateStatus(ctx context.Context, tc tenant.Context, orderID uint, req *TransitionRequest) (*Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	return s.transition(ctx, tc, orderID, nil, req.Status, TransitionOptions{
		Notes:          req.Notes,
		Reason:         req.Reason,
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		ActorID:        tc.ActorID,
	})
}

// Cancel cancels the caller's own order. Legal only from the cancellable
// set; shipped and terminal orders reject.
func (s *Service) Cancel(ctx context.Context, tc tenant.Context, userID uint, orderID uint, reason string) (*Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	return s.transition(ctx, tc, orderID, &userID, StatusCancelled, TransitionOptions{
		Reason:  reason,
		ActorID: tc.ActorID,
	})
}

// AdminCancel cancels any order in the store.
func (s *Service) AdminCancel(ctx context.Context, tc tenant.Context, orderID uint, reason string) (*Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	return s.transition(ctx, tc, orderID, nil, StatusCancelled, TransitionOptions{
		Reason:  reason,
		ActorID: tc.ActorID,
	})
}

func (s *Service) transition(ctx context.Context, tc tenant.Context, orderID uint, ownerID *uint, next Status, opts TransitionOptions) (*Order, error) {
	var (
		o      *Order
		intent *notify.Intent
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		o, err = LockForUpdate(tx, tc, orderID)
		if err != nil {
			return err
		}
		if ownerID != nil && (o.UserID == nil || *o.UserID != *ownerID) {
			return apperrors.NotFound("order/not_found", "order %d not found", orderID)
		}

		intent, err = ApplyTransition(tx, o, next, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	if intent != nil {
		s.notifier.Notify(ctx, *intent)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"status":       o.Status,
	}).Info("order status updated")

	return o, nil
}

// Get returns an order with items for an admin.
func (s *Service) Get(ctx context.Context, tc tenant.Context, orderID uint) (*Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, tc, "id = ?", orderID)
}

// GetForUser returns the user's own order with items.
func (s *Service) GetForUser(ctx context.Context, tc tenant.Context, userID, orderID uint) (*Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	o, err := s.loadOrder(ctx, tc, "id = ?", orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, apperrors.NotFound("order/not_found", "order %d not found", orderID)
	}
	return o, nil
}

// GetByNumber returns the user's own order by its order number.
func (s *Service) GetByNumber(ctx context.Context, tc tenant.Context, userID uint, number string) (*Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	o, err := s.loadOrder(ctx, tc, "order_number = ?", number)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, apperrors.NotFound("order/not_found", "order %s not found", number)
	}
	return o, nil
}

func (s *Service) loadOrder(ctx context.Context, tc tenant.Context, cond string, arg interface{}) (*Order, error) {
	var o Order
	result := s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).
		Preload("Items").
		Where(cond, arg).First(&o)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("order/not_found", "order not found")
		}
		return nil, apperrors.Internal(result.Error)
	}
	return &o, nil
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, tc tenant.Context, userID uint, limit, offset int) ([]Order, int64, error) {
	if err := tc.Require(); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, tc, func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", userID)
	}, limit, offset)
}

// AdminList returns the store's orders, optionally filtered by status.
func (s *Service) AdminList(ctx context.Context, tc tenant.Context, status Status, limit, offset int) ([]Order, int64, error) {
	if err := tc.Require(); err != nil {
		return nil, 0, err
	}
	if status != "" && !status.Valid() {
		return nil, 0, apperrors.Validation("order/unknown_status", "unknown order status %q", status)
	}
	return s.list(ctx, tc, func(q *gorm.DB) *gorm.DB {
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}, limit, offset)
}

func (s *Service) list(ctx context.Context, tc tenant.Context, filter func(*gorm.DB) *gorm.DB, limit, offset int) ([]Order, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := filter(s.db.WithContext(ctx).Model(&Order{}).Scopes(tenant.Scope(tc)))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	var orders []Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return orders, total, nil
}

// History returns the order's transition ledger, newest first.
func (s *Service) History(ctx context.Context, tc tenant.Context, orderID uint) ([]OrderStatusHistory, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	// Confirm the order exists in this store before exposing its ledger.
	var count int64
	err := s.db.WithContext(ctx).Model(&Order{}).Scopes(tenant.Scope(tc)).
		Where("id = ?", orderID).Count(&count).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if count == 0 {
		return nil, apperrors.NotFound("order/not_found", "order %d not found", orderID)
	}

	var entries []OrderStatusHistory
	err = s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

// MarkHistoryNotified flips the notification flag on a ledger entry after
// the external notifier delivers. The only permitted post-insert mutation.
func (s *Service) MarkHistoryNotified(ctx context.Context, tc tenant.Context, historyID uint) error {
	if err := tc.Require(); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&OrderStatusHistory{}).
		Where("id = ? AND store_id = ? AND customer_notified = ?", historyID, tc.StoreID, false).
		Updates(map[string]interface{}{
			"customer_notified": true,
			"notified_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return apperrors.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("order/history_not_found", "history entry %d not found or already notified", historyID)
	}
	return nil
}

// editable reports whether items may still change. Items freeze once the
// order ships or reaches a terminal state.
func editable(s Status) bool {
	return s == StatusPending || s == StatusPaid || s == StatusProcessing
}

// AddItem appends an item to an order and recomputes totals in the same
// transaction.
func (s *Service) AddItem(ctx context.Context, tc tenant.Context, orderID uint, req *ItemRequest) (*Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := LockForUpdate(tx, tc, orderID)
		if err != nil {
			return err
		}
		if !editable(o.Status) {
			return apperrors.IllegalTransition("order/items_frozen", "items cannot change once the order is %s", o.Status)
		}

		item := OrderItem{
			OrderID:   o.ID,
			StoreID:   o.StoreID,
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Name:      req.Name,
			SKU:       req.SKU,
			ImageURL:  req.ImageURL,
			Quantity:  req.Quantity,
			Price:     req.Price,
		}
		if len(req.Variant) > 0 {
			item.VariantAttributes = datatypes.JSONMap{}
			for k, v := range req.Variant {
				item.VariantAttributes[k] = v
			}
		}
		if err := item.Validate(); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return apperrors.Internal(err)
		}

		return s.recalculateTotals(tx, o)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tc, orderID)
}

// UpdateItem changes an item's quantity and/or price and recomputes totals.
func (s *Service) UpdateItem(ctx context.Context, tc tenant.Context, orderID, itemID uint, quantity int, price int64) (*Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := LockForUpdate(tx, tc, orderID)
		if err != nil {
			return err
		}
		if !editable(o.Status) {
			return apperrors.IllegalTransition("order/items_frozen", "items cannot change once the order is %s", o.Status)
		}

		check := OrderItem{Quantity: quantity, Price: price}
		if err := check.Validate(); err != nil {
			return err
		}

		result := tx.Model(&OrderItem{}).
			Where("id = ? AND order_id = ?", itemID, o.ID).
			Updates(map[string]interface{}{"quantity": quantity, "price": price})
		if result.Error != nil {
			return apperrors.Internal(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("order/item_not_found", "order item %d not found", itemID)
		}

		return s.recalculateTotals(tx, o)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tc, orderID)
}

// RemoveItem soft-deletes an item and recomputes totals.
func (s *Service) RemoveItem(ctx context.Context, tc tenant.Context, orderID, itemID uint) (*Order, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := LockForUpdate(tx, tc, orderID)
		if err != nil {
			return err
		}
		if !editable(o.Status) {
			return apperrors.IllegalTransition("order/items_frozen", "items cannot change once the order is %s", o.Status)
		}

		result := tx.Where("id = ? AND order_id = ?", itemID, o.ID).Delete(&OrderItem{})
		if result.Error != nil {
			return apperrors.Internal(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("order/item_not_found", "order item %d not found", itemID)
		}

		return s.recalculateTotals(tx, o)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tc, orderID)
}

// recalculateTotals rederives subtotal/total from the surviving items inside
// the mutation's own transaction, never asynchronously.
func (s *Service) recalculateTotals(tx *gorm.DB, o *Order) error {
	var items []OrderItem
	if err := tx.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
		return apperrors.Internal(err)
	}

	o.RecalculateTotals(items)
	err := tx.Model(o).Updates(map[string]interface{}{
		"subtotal": o.Subtotal,
		"total":    o.Total,
	}).Error
	if err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
