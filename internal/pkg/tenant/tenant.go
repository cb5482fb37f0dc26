// internal/pkg/tenant/tenant.go
package tenant

import (
	"context"

	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Context identifies the tenant and actor an operation runs on behalf of.
// It is threaded explicitly through every service call; there is no
// process-wide current store.
type Context struct {
	StoreID uint
	ActorID *uint // authenticated user, nil for system-initiated operations
}

// Require fails closed when no store has been resolved. Services call this
// before touching tenant-scoped tables so a missing tenant can never widen
// a query to all stores.
func (t Context) Require() error {
	if t.StoreID == 0 {
		return apperrors.TenantMismatch("tenant/unresolved", "no store resolved for this operation")
	}
	return nil
}

// Actor returns the acting user id, or 0 when the operation is system-driven.
func (t Context) Actor() uint {
	if t.ActorID == nil {
		return 0
	}
	return *t.ActorID
}

// Scope returns a gorm scope restricting a query to the tenant's rows.
func Scope(t Context) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("store_id = ?", t.StoreID)
	}
}

// Owns verifies that a loaded row belongs to the tenant. Cross-aggregate
// operations check the row's own store_id rather than trusting the caller.
func (t Context) Owns(storeID uint) error {
	if storeID != t.StoreID {
		return apperrors.TenantMismatch("tenant/mismatch", "entity belongs to a different store")
	}
	return nil
}

type ctxKey struct{}

// NewContext attaches a tenant context to ctx.
func NewContext(ctx context.Context, t Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext extracts the tenant context from ctx.
func FromContext(ctx context.Context) (Context, bool) {
	t, ok := ctx.Value(ctxKey{}).(Context)
	return t, ok
}
