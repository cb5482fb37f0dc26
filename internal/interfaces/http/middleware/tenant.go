// internal/interfaces/http/middleware/tenant.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/store"
	"github.com/your-org/storefront-backend/internal/pkg/tenant"
)

const storeContextKey = "store"

// TenantResolver resolves the active store from the X-Store-Code header and
// fails closed when no store can be resolved. Every tenant-scoped route runs
// behind it.
func TenantResolver(stores *store.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.GetHeader("X-Store-Code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "X-Store-Code header required",
				"code":  "tenant/unresolved",
			})
			c.Abort()
			return
		}

		st, err := stores.ResolveByCode(c.Request.Context(), code)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "unknown store",
				"code":  "tenant/unresolved",
			})
			c.Abort()
			return
		}

		c.Set(storeContextKey, st)
		c.Next()
	}
}

// StoreFromContext returns the resolved store.
func StoreFromContext(c *gin.Context) (*store.Store, bool) {
	v, exists := c.Get(storeContextKey)
	if !exists {
		return nil, false
	}
	st, ok := v.(*store.Store)
	return st, ok
}

// TenantFromContext builds the tenant context for service calls: the
// resolved store plus the authenticated actor, when present.
func TenantFromContext(c *gin.Context) tenant.Context {
	var tc tenant.Context
	if st, ok := StoreFromContext(c); ok {
		tc.StoreID = st.ID
	}
	if userID, ok := GetUserIDFromContext(c); ok {
		tc.ActorID = &userID
	}
	return tc
}
