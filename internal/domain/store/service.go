// internal/domain/store/service.go
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service resolves stores for incoming requests
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new store service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
	}
}

const resolveCacheTTL = 5 * time.Minute

// ResolveByCode looks up an active store by its code. Lookups are cached in
// Redis since every request resolves a store before doing anything else.
func (s *Service) ResolveByCode(ctx context.Context, code string) (*Store, error) {
	if code == "" {
		return nil, apperrors.Validation("store/code_required", "store code is required")
	}

	cacheKey := "store:code:" + code
	if data, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
		var cached Store
		if err := json.Unmarshal([]byte(data), &cached); err == nil {
			return &cached, nil
		}
	}

	var st Store
	result := s.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(&st)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("store/not_found", "store %q not found", code)
		}
		return nil, apperrors.Internal(result.Error)
	}

	if data, err := json.Marshal(&st); err == nil {
		s.redisClient.Set(ctx, cacheKey, data, resolveCacheTTL)
	}

	return &st, nil
}

// Get retrieves a store by id.
func (s *Service) Get(ctx context.Context, id uint) (*Store, error) {
	var st Store
	result := s.db.WithContext(ctx).First(&st, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("store/not_found", "store %d not found", id)
		}
		return nil, apperrors.Internal(result.Error)
	}
	return &st, nil
}
