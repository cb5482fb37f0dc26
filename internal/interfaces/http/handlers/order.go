// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(svc *order.Service, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		orderService: svc,
		config:       cfg,
	}
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	tc := middleware.TenantFromContext(c)
	limit, offset := pagination(c)
	orders, total, err := h.orderService.List(c.Request.Context(), tc, userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  orders,
		"total": total,
	})
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
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

	tc := middleware.TenantFromContext(c)
	o, err := h.orderService.GetForUser(c.Request.Context(), tc, userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": o})
}

// GetByNumber handles GET /orders/number/:number
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	tc := middleware.TenantFromContext(c)
	o, err := h.orderService.GetByNumber(c.Request.Context(), tc, userID, c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": o})
}

// Cancel handles PUT /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
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

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondBindError(c, err)
		return
	}

	tc := middleware.TenantFromContext(c)
	o, err := h.orderService.Cancel(c.Request.Context(), tc, userID, orderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled",
		"data":    o,
	})
}

// AdminList handles GET /admin/orders
func (h *OrderHandler) AdminList(c *gin.Context) {
	tc := middleware.TenantFromContext(c)
	limit, offset := pagination(c)
	status := order.Status(c.Query("status"))

	orders, total, err := h.orderService.AdminList(c.Request.Context(), tc, status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  orders,
		"total": total,
	})
}

// AdminGet handles GET /admin/orders/:id
func (h *OrderHandler) AdminGet(c *gin.Context) {
	orderID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	tc := middleware.TenantFromContext(c)
	o, err := h.orderService.Get(c.Request.Context(), tc, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": o})
}

// UpdateStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req order.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tc := middleware.TenantFromContext(c)
	o, err := h.orderService.UpdateStatus(c.Request.Context(), tc, orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"data":    o,
	})
}

// AdminCancel handles PUT /admin/orders/:id/cancel
func (h *OrderHandler) AdminCancel(c *gin.Context) {
	orderID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondBindError(c, err)
		return
	}

	tc := middleware.TenantFromContext(c)
	o, err := h.orderService.AdminCancel(c.Request.Context(), tc, orderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled",
		"data":    o,
	})
}

// History handles GET /admin/orders/:id/history
func (h *OrderHandler) History(c *gin.Context) {
	orderID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	tc := middleware.TenantFromContext(c)
	entries, err := h.orderService.History(c.Request.Context(), tc, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// MarkNotified handles PUT /admin/orders/history/:id/notified
func (h *OrderHandler) MarkNotified(c *gin.Context) {
	historyID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history id"})
		return
	}

	tc := middleware.TenantFromContext(c)
	if err := h.orderService.MarkHistoryNotified(c.Request.Context(), tc, historyID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "History entry marked notified"})
}

// AddItem handles POST /admin/orders/:id/items
func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req order.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tc := middleware.TenantFromContext(c)
	o, err := h.orderService.AddItem(c.Request.Context(), tc, orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order item added",
		"data":    o,
	})
}

// UpdateItem handles PUT /admin/orders/:id/items/:itemId
func (h *OrderHandler) UpdateItem(c *gin.Context) {
	orderID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	itemID, ok := paramUint(c, "itemId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	var req struct {
		Quantity int   `json:"quantity" binding:"required"`
		Price    int64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tc := middleware.TenantFromContext(c)
	o, err := h.orderService.UpdateItem(c.Request.Context(), tc, orderID, itemID, req.Quantity, req.Price)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order item updated",
		"data":    o,
	})
}

// RemoveItem handles DELETE /admin/orders/:id/items/:itemId
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	orderID, ok := paramUint(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	itemID, ok := paramUint(c, "itemId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	tc := middleware.TenantFromContext(c)
	o, err := h.orderService.RemoveItem(c.Request.Context(), tc, orderID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order item removed",
		"data":    o,
	})
}
