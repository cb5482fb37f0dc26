// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	config          *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *CheckoutHandler {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	carts := cart.NewService(db, cfg, catalog.NewService(db))
	return &CheckoutHandler{
		checkoutService: checkout.NewService(db, logger, carts),
		config:          cfg,
	}
}

// Checkout handles POST /checkout. Works for authenticated users and guest
// sessions alike.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var owner cart.Owner
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		owner = cart.Owner{UserID: &userID}
	} else {
		owner = cart.Owner{SessionID: c.GetHeader("X-Session-ID")}
	}

	tc := middleware.TenantFromContext(c)
	o, err := h.checkoutService.Checkout(c.Request.Context(), tc, owner, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created",
		"data":    o,
	})
}
