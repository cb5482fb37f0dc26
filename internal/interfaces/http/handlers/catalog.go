// internal/interfaces/http/handlers/catalog.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// CatalogHandler handles storefront catalog reads
type CatalogHandler struct {
	catalogService *catalog.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalog.NewService(db),
	}
}

// List handles GET /products
func (h *CatalogHandler) List(c *gin.Context) {
	tc := middleware.TenantFromContext(c)
	limit, offset := pagination(c)

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), tc, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  products,
		"total": total,
	})
}

// Get handles GET /products/:slug
func (h *CatalogHandler) Get(c *gin.Context) {
	tc := middleware.TenantFromContext(c)

	product, err := h.catalogService.GetProduct(c.Request.Context(), tc, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}
