// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *payment.Service
	config         *config.Config
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(svc *payment.Service, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		paymentService: svc,
		config:         cfg,
	}
}

// ListMethods handles GET /payment-methods
func (h *PaymentHandler) ListMethods(c *gin.Context) {
	tc := middleware.TenantFromContext(c)
	methods, err := h.paymentService.ListMethods(c.Request.Context(), tc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": methods})
}

// Report handles POST /orders/:id/payments
func (h *PaymentHandler) Report(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	orderID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req payment.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tc := middleware.TenantFromContext(c)
	p, err := h.paymentService.Report(c.Request.Context(), tc, &userID, orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Payment reported",
		"data":    p,
	})
}

// PendingList handles GET /admin/payments/pending
func (h *PaymentHandler) PendingList(c *gin.Context) {
	tc := middleware.TenantFromContext(c)
	triaged, err := h.paymentService.PendingList(c.Request.Context(), tc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": triaged})
}

// Verify handles PUT /admin/payments/:id/verify
func (h *PaymentHandler) Verify(c *gin.Context) {
	paymentID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id"})
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondBindError(c, err)
		return
	}

	tc := middleware.TenantFromContext(c)
	p, err := h.paymentService.Verify(c.Request.Context(), tc, paymentID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified",
		"data":    p,
	})
}

// Reject handles PUT /admin/payments/:id/reject
func (h *PaymentHandler) Reject(c *gin.Context) {
	paymentID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tc := middleware.TenantFromContext(c)
	p, err := h.paymentService.Reject(c.Request.Context(), tc, paymentID, req.Reason, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment rejected",
		"data":    p,
	})
}

// Verifications handles GET /admin/payments/:id/verifications
func (h *PaymentHandler) Verifications(c *gin.Context) {
	paymentID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id"})
		return
	}

	tc := middleware.TenantFromContext(c)
	entries, err := h.paymentService.Verifications(c.Request.Context(), tc, paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
