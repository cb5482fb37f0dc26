// internal/domain/payment/service.go
package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
	"github.com/your-org/storefront-backend/internal/pkg/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service implements the manual payment workflow: customers report payments
// against an order's outstanding balance, admins verify or reject them.
// Verification is the one place this package reaches into the order state
// machine, and it does so inside a single transaction spanning both
// aggregates.
type Service struct {
	db       *gorm.DB
	logger   *logrus.Logger
	notifier notify.Notifier
}

// NewService creates a new payment service
func NewService(db *gorm.DB, logger *logrus.Logger, notifier notify.Notifier) *Service {
	return &Service{
		db:       db,
		logger:   logger,
		notifier: notifier,
	}
}

// ReportRequest represents a customer payment report
type ReportRequest struct {
	PaymentMethodID  uint   `json:"payment_method_id" binding:"required"`
	Amount           int64  `json:"amount" binding:"required"`
	ReceiptReference string `json:"receipt_reference"`
	Notes            string `json:"notes"`
}

// TriagedPayment is a pending payment with its computed triage view.
type TriagedPayment struct {
	Payment           Payment `json:"payment"`
	OrderNumber       string  `json:"order_number"`
	Priority          string  `json:"priority"`
	RequiresAttention bool    `json:"requires_attention"`
}

// Report records a customer's payment claim against an order. The claim is
// rejected when the order no longer accepts payments, the method belongs to
// another store or is inactive, or the amount exceeds the outstanding
// balance.
func (s *Service) Report(ctx context.Context, tc tenant.Context, userID *uint, orderID uint, req *ReportRequest) (*Payment, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, apperrors.Validation("payment/invalid_amount", "payment amount must be positive")
	}

	var p *Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := order.LockForUpdate(tx, tc, orderID)
		if err != nil {
			return err
		}
		if userID != nil && (o.UserID == nil || *o.UserID != *userID) {
			return apperrors.NotFound("order/not_found", "order %d not found", orderID)
		}
		if o.Status.TerminalForPayment() {
			return apperrors.IllegalTransition("payment/order_closed", "order %s no longer accepts payments", o.OrderNumber)
		}

		var method PaymentMethod
		result := tx.First(&method, req.PaymentMethodID)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				return apperrors.NotFound("payment/method_not_found", "payment method %d not found", req.PaymentMethodID)
			}
			return apperrors.Internal(result.Error)
		}
		// The method's own store_id decides ownership, never the caller.
		if err := tc.Owns(method.StoreID); err != nil {
			return err
		}
		if !method.IsActive {
			return apperrors.Validation("payment/method_inactive", "payment method %s is not accepting payments", method.Name)
		}

		var committed int64
		err = tx.Model(&Payment{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("order_id = ? AND status <> ?", o.ID, StatusRejected).
			Scan(&committed).Error
		if err != nil {
			return apperrors.Internal(err)
		}
		if req.Amount > o.Total-committed {
			return apperrors.Validation("payment/balance_exceeded", "amount exceeds the order's outstanding balance of %d", o.Total-committed)
		}

		now := time.Now().UTC()
		p = &Payment{
			StoreID:          tc.StoreID,
			OrderID:          o.ID,
			PaymentMethodID:  method.ID,
			Amount:           req.Amount,
			ReferenceNumber:  "PAY-" + uuid.New().String(),
			ReceiptReference: req.ReceiptReference,
			Status:           StatusPending,
			PaidAt:           &now,
			AdminNotes:       req.Notes,
		}
		if err := tx.Create(p).Error; err != nil {
			return apperrors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"order_id":   p.OrderID,
		"amount":     p.Amount,
		"reference":  p.ReferenceNumber,
	}).Info("payment reported")

	return p, nil
}

// Verify confirms a pending payment. Appends a verification entry and, when
// the owning order is still pending, advances it to processing in the same
// transaction. Legal only from pending; a raced second call loses cleanly.
func (s *Service) Verify(ctx context.Context, tc tenant.Context, paymentID uint, notes string) (*Payment, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	var (
		p       *Payment
		intents []notify.Intent
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = s.lockPayment(tx, tc, paymentID)
		if err != nil {
			return err
		}
		if !p.IsPending() {
			return apperrors.IllegalTransition("payment/not_pending", "payment %s is already %s", p.ReferenceNumber, p.Status)
		}

		now := time.Now().UTC()
		actor := tc.Actor()

		// Status-guarded update: the legality check and the mutation commit
		// or fail together even without the row lock above.
		result := tx.Model(&Payment{}).
			Where("id = ? AND status = ?", p.ID, StatusPending).
			Updates(map[string]interface{}{
				"status":      StatusVerified,
				"verified_at": now,
				"verified_by": actor,
				"admin_notes": notes,
			})
		if result.Error != nil {
			return apperrors.Internal(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.Conflict("payment/verify_conflict", "payment %s was actioned concurrently", p.ReferenceNumber)
		}

		p.Status = StatusVerified
		p.VerifiedAt = &now
		p.VerifiedBy = &actor

		entry := PaymentVerification{
			StoreID:    p.StoreID,
			PaymentID:  p.ID,
			UserID:     actor,
			Action:     ActionVerified,
			Notes:      notes,
			ActionedAt: now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return apperrors.Internal(err)
		}

		o, err := order.LockForUpdate(tx, tc, p.OrderID)
		if err != nil {
			return err
		}
		intents = append(intents, notify.Intent{
			Event:       notify.EventPaymentVerified,
			StoreID:     p.StoreID,
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			PaymentID:   p.ID,
			Email:       o.Email,
		})

		if o.Status == order.StatusPending {
			intent, err := order.ApplyTransition(tx, o, order.StatusProcessing, order.TransitionOptions{
				Notes:   "payment verified",
				ActorID: tc.ActorID,
			})
			if err != nil {
				return err
			}
			if intent != nil {
				intents = append(intents, *intent)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, intent := range intents {
		s.notifier.Notify(ctx, intent)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"order_id":   p.OrderID,
		"reference":  p.ReferenceNumber,
	}).Info("payment verified")

	return p, nil
}

// Reject declines a pending payment with a reason. The order is untouched; a
// rejected payment never regresses order status.
func (s *Service) Reject(ctx context.Context, tc tenant.Context, paymentID uint, reason, notes string) (*Payment, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, apperrors.Validation("payment/reason_required", "a rejection reason is required")
	}

	var (
		p      *Payment
		intent notify.Intent
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = s.lockPayment(tx, tc, paymentID)
		if err != nil {
			return err
		}
		if !p.IsPending() {
			return apperrors.IllegalTransition("payment/not_pending", "payment %s is already %s", p.ReferenceNumber, p.Status)
		}

		now := time.Now().UTC()
		actor := tc.Actor()

		result := tx.Model(&Payment{}).
			Where("id = ? AND status = ?", p.ID, StatusPending).
			Updates(map[string]interface{}{
				"status":           StatusRejected,
				"rejected_at":      now,
				"rejected_by":      actor,
				"rejection_reason": reason,
				"admin_notes":      notes,
			})
		if result.Error != nil {
			return apperrors.Internal(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.Conflict("payment/reject_conflict", "payment %s was actioned concurrently", p.ReferenceNumber)
		}

		p.Status = StatusRejected
		p.RejectedAt = &now
		p.RejectedBy = &actor
		p.RejectionReason = reason

		entry := PaymentVerification{
			StoreID:         p.StoreID,
			PaymentID:       p.ID,
			UserID:          actor,
			Action:          ActionRejected,
			Notes:           notes,
			RejectionReason: reason,
			ActionedAt:      now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return apperrors.Internal(err)
		}

		var o order.Order
		if err := tx.First(&o, p.OrderID).Error; err != nil {
			return apperrors.Internal(err)
		}
		intent = notify.Intent{
			Event:       notify.EventPaymentRejected,
			StoreID:     p.StoreID,
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			PaymentID:   p.ID,
			Email:       o.Email,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, intent)

	s.logger.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"order_id":   p.OrderID,
		"reference":  p.ReferenceNumber,
		"reason":     reason,
	}).Info("payment rejected")

	return p, nil
}

// PendingList returns the store's pending payments for admin triage, oldest
// first, with computed priority.
func (s *Service) PendingList(ctx context.Context, tc tenant.Context) ([]TriagedPayment, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	var payments []Payment
	err := s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).
		Where("status = ?", StatusPending).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(payments) == 0 {
		return []TriagedPayment{}, nil
	}

	orderIDs := make([]uint, 0, len(payments))
	for _, p := range payments {
		orderIDs = append(orderIDs, p.OrderID)
	}
	var orders []order.Order
	if err := s.db.WithContext(ctx).Where("id IN ?", orderIDs).Find(&orders).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	numbers := make(map[uint]string, len(orders))
	for _, o := range orders {
		numbers[o.ID] = o.OrderNumber
	}

	now := time.Now().UTC()
	triaged := make([]TriagedPayment, 0, len(payments))
	for _, p := range payments {
		triaged = append(triaged, TriagedPayment{
			Payment:           p,
			OrderNumber:       numbers[p.OrderID],
			Priority:          p.Priority(now),
			RequiresAttention: p.RequiresAttention(now),
		})
	}
	return triaged, nil
}

// ListMethods returns the store's active payment methods.
func (s *Service) ListMethods(ctx context.Context, tc tenant.Context) ([]PaymentMethod, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	var methods []PaymentMethod
	err := s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).
		Where("is_active = ?", true).
		Order("id").
		Find(&methods).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return methods, nil
}

// Verifications returns a payment's audit trail, newest first.
func (s *Service) Verifications(ctx context.Context, tc tenant.Context, paymentID uint) ([]PaymentVerification, error) {
	if err := tc.Require(); err != nil {
		return nil, err
	}

	var p Payment
	result := s.db.WithContext(ctx).Scopes(tenant.Scope(tc)).First(&p, paymentID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("payment/not_found", "payment %d not found", paymentID)
		}
		return nil, apperrors.Internal(result.Error)
	}

	var entries []PaymentVerification
	err := s.db.WithContext(ctx).
		Where("payment_id = ?", p.ID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

func (s *Service) lockPayment(tx *gorm.DB, tc tenant.Context, paymentID uint) (*Payment, error) {
	var p Payment
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(tc)).
		First(&p, paymentID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("payment/not_found", "payment %d not found", paymentID)
		}
		return nil, apperrors.Internal(result.Error)
	}
	if err := tc.Owns(p.StoreID); err != nil {
		return nil, err
	}
	return &p, nil
}
