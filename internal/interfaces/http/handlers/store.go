// internal/interfaces/http/handlers/store.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// StoreHandler handles store endpoints
type StoreHandler struct{}

// NewStoreHandler creates a new store handler
func NewStoreHandler() *StoreHandler {
	return &StoreHandler{}
}

// Get handles GET /store: the active store resolved for this request.
func (h *StoreHandler) Get(c *gin.Context) {
	st, ok := middleware.StoreFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no store resolved"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": st})
}
