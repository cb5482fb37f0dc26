// internal/domain/cart/sweeper.go
package cart

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

const sweepLockKey = "cart:sweeper:lock"

// Sweeper periodically expires overdue carts and hard-deletes expired carts
// past the retention window. Expiry is otherwise lazy (active-cart lookups
// exclude overdue carts), so the sweeper only needs to run eventually, not
// promptly. A Redis lock keeps multiple instances from sweeping at once.
type Sweeper struct {
	db          *gorm.DB
	redisClient *redis.Client
	logger      *logrus.Logger
	config      *config.Config
}

// NewSweeper creates a cart sweeper.
func NewSweeper(db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger, cfg *config.Config) *Sweeper {
	return &Sweeper{
		db:          db,
		redisClient: redisClient,
		logger:      logger,
		config:      cfg,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Cart.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Safe to call concurrently with live traffic: carts
// flip to expired only when already past their deadline, and the lookup
// queries never return overdue carts anyway.
func (s *Sweeper) Sweep(ctx context.Context) {
	ok, err := s.redisClient.SetNX(ctx, sweepLockKey, "1", s.config.Cart.SweepInterval).Result()
	if err != nil {
		s.logger.WithError(err).Warn("cart sweeper: lock acquisition failed")
		return
	}
	if !ok {
		return
	}
	defer s.redisClient.Del(ctx, sweepLockKey)

	now := time.Now().UTC()

	expired := s.db.WithContext(ctx).Model(&Cart{}).
		Where("status = ? AND expires_at <= ?", StatusActive, now).
		Update("status", StatusExpired)
	if expired.Error != nil {
		s.logger.WithError(expired.Error).Error("cart sweeper: expiry pass failed")
		return
	}

	// Retention: expired carts untouched for the retention window are purged
	// with their items.
	cutoff := now.Add(-s.config.Cart.SweepRetention)
	var staleIDs []uint
	err = s.db.WithContext(ctx).Model(&Cart{}).
		Where("status = ? AND updated_at <= ?", StatusExpired, cutoff).
		Pluck("id", &staleIDs).Error
	if err != nil {
		s.logger.WithError(err).Error("cart sweeper: retention lookup failed")
		return
	}

	var purged int64
	if len(staleIDs) > 0 {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("cart_id IN ?", staleIDs).Delete(&CartItem{}).Error; err != nil {
				return err
			}
			result := tx.Where("id IN ?", staleIDs).Delete(&Cart{})
			purged = result.RowsAffected
			return result.Error
		})
		if err != nil {
			s.logger.WithError(err).Error("cart sweeper: retention purge failed")
			return
		}
	}

	if expired.RowsAffected > 0 || purged > 0 {
		s.logger.WithFields(logrus.Fields{
			"expired": expired.RowsAffected,
			"purged":  purged,
		}).Info("cart sweep completed")
	}
}
