// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/store"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
	"gorm.io/gorm"
)

// SetupRoutes wires the API surface. Everything under /api/v1 is tenant
// scoped: the resolver runs before auth so even login is per store.
func SetupRoutes(api *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger, cfg *config.Config) {
	notifier := notify.NewLogNotifier(logger)
	orderService := order.NewService(db, logger, notifier)
	paymentService := payment.NewService(db, logger, notifier)
	storeService := store.NewService(db, redisClient, cfg)

	authHandler := handlers.NewAuthHandler(db, cfg)
	storeHandler := handlers.NewStoreHandler()
	catalogHandler := handlers.NewCatalogHandler(db)
	cartHandler := handlers.NewCartHandler(db, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(db, logger, cfg)
	orderHandler := handlers.NewOrderHandler(orderService, cfg)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg)

	api.Use(middleware.TenantResolver(storeService))

	// Public routes
	api.GET("/store", storeHandler.Get)
	api.GET("/products", catalogHandler.List)
	api.GET("/products/:slug", catalogHandler.Get)
	api.GET("/payment-methods", paymentHandler.ListMethods)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.GET("/profile", middleware.AuthMiddleware(cfg), authHandler.Profile)
		auth.PUT("/password", middleware.AuthMiddleware(cfg), authHandler.ChangePassword)
	}

	// Cart works for guests (session header) and users alike.
	cart := api.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddItem)
		cart.PUT("/items/:id", cartHandler.UpdateItem)
		cart.DELETE("/items/:id", cartHandler.RemoveItem)
		cart.POST("/merge", middleware.AuthMiddleware(cfg), cartHandler.Merge)
	}

	api.POST("/checkout", middleware.OptionalAuthMiddleware(cfg), checkoutHandler.Checkout)

	orders := api.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.List)
		orders.GET("/:id", orderHandler.Get)
		orders.GET("/number/:number", orderHandler.GetByNumber)
		orders.PUT("/:id/cancel", orderHandler.Cancel)
		orders.POST("/:id/payments", paymentHandler.Report)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.GET("/orders", orderHandler.AdminList)
		admin.GET("/orders/:id", orderHandler.AdminGet)
		admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)
		admin.PUT("/orders/:id/cancel", orderHandler.AdminCancel)
		admin.GET("/orders/:id/history", orderHandler.History)
		admin.PUT("/orders/history/:id/notified", orderHandler.MarkNotified)

		admin.POST("/orders/:id/items", orderHandler.AddItem)
		admin.PUT("/orders/:id/items/:itemId", orderHandler.UpdateItem)
		admin.DELETE("/orders/:id/items/:itemId", orderHandler.RemoveItem)

		admin.GET("/payments/pending", paymentHandler.PendingList)
		admin.PUT("/payments/:id/verify", paymentHandler.Verify)
		admin.PUT("/payments/:id/reject", paymentHandler.Reject)
		admin.GET("/payments/:id/verifications", paymentHandler.Verifications)
	}
}
