// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/store"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("Running database auto-migrations...")

	// Dependency order: tenant root first, ledgers last.
	models := []interface{}{
		&store.Store{},
		&user.User{},

		&catalog.Product{},
		&catalog.ProductVariant{},

		&cart.Cart{},
		&cart.CartItem{},

		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},

		&payment.PaymentMethod{},
		&payment.Payment{},
		&payment.PaymentVerification{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Tenant-scoped lookups
		"CREATE INDEX IF NOT EXISTS idx_users_store_active ON users(store_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_store_active ON products(store_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_variants_store_product ON product_variants(store_id, product_id)",

		// Cart lookups and sweeping
		"CREATE INDEX IF NOT EXISTS idx_carts_store_user_status ON carts(store_id, user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_carts_store_session_status ON carts(store_id, session_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_carts_status_expires ON carts(status, expires_at)",

		// Order lookups
		"CREATE INDEX IF NOT EXISTS idx_orders_store_user ON orders(store_id, user_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_store_status_created ON orders(store_id, status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_histories_order ON order_status_histories(order_id, created_at DESC)",

		// Payment triage and balance checks
		"CREATE INDEX IF NOT EXISTS idx_payments_order_status ON payments(order_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_payments_store_status_created ON payments(store_id, status, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_payment_verifications_payment ON payment_verifications(payment_id, created_at DESC)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("Failed to create index: %v", err)
		}
	}

	return nil
}

// SeedInitialData inserts development fixtures: a demo store with an admin,
// a few products and the offline payment methods.
func (m *Migration) SeedInitialData() error {
	log.Println("Seeding initial data...")

	demoStore, err := m.seedStore()
	if err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}
	if err := m.seedAdminUser(demoStore.ID); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedCatalog(demoStore.ID); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if err := m.seedPaymentMethods(demoStore.ID); err != nil {
		return fmt.Errorf("failed to seed payment methods: %w", err)
	}

	log.Println("Initial data seeded")
	return nil
}

func (m *Migration) seedStore() (*store.Store, error) {
	var existing store.Store
	if err := m.db.Where("code = ?", "demo").First(&existing).Error; err == nil {
		return &existing, nil
	}

	demo := store.Store{
		Name:     "Demo Store",
		Code:     "demo",
		Currency: "USD",
		IsActive: true,
	}
	if err := m.db.Create(&demo).Error; err != nil {
		return nil, err
	}
	return &demo, nil
}

func (m *Migration) seedAdminUser(storeID uint) error {
	var count int64
	m.db.Model(&user.User{}).Where("store_id = ? AND is_admin = ?", storeID, true).Count(&count)
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := user.User{
		StoreID:   storeID,
		Email:     "admin@demo.local",
		Password:  string(hashed),
		FirstName: "Store",
		LastName:  "Admin",
		IsActive:  true,
		IsAdmin:   true,
	}
	return m.db.Create(&admin).Error
}

func (m *Migration) seedCatalog(storeID uint) error {
	var count int64
	m.db.Model(&catalog.Product{}).Where("store_id = ?", storeID).Count(&count)
	if count > 0 {
		return nil
	}

	products := []struct {
		name     string
		slug     string
		variants []catalog.ProductVariant
	}{
		{
			name: "Classic Tee", slug: "classic-tee",
			variants: []catalog.ProductVariant{
				{SKU: "TEE-BLK-M", Name: "Black / M", Price: 2500, Attributes: datatypes.JSONMap{"color": "black", "size": "M"}, IsActive: true},
				{SKU: "TEE-BLK-L", Name: "Black / L", Price: 2500, Attributes: datatypes.JSONMap{"color": "black", "size": "L"}, IsActive: true},
			},
		},
		{
			name: "Canvas Tote", slug: "canvas-tote",
			variants: []catalog.ProductVariant{
				{SKU: "TOTE-NAT", Name: "Natural", Price: 1800, Attributes: datatypes.JSONMap{"color": "natural"}, IsActive: true},
			},
		},
		{
			name: "Enamel Mug", slug: "enamel-mug",
			variants: []catalog.ProductVariant{
				{SKU: "MUG-WHT", Name: "White", Price: 1200, Attributes: datatypes.JSONMap{"color": "white"}, IsActive: true},
			},
		},
	}

	for _, p := range products {
		product := catalog.Product{
			StoreID:  storeID,
			Name:     p.name,
			Slug:     p.slug,
			IsActive: true,
		}
		if err := m.db.Create(&product).Error; err != nil {
			return err
		}
		for i := range p.variants {
			p.variants[i].StoreID = storeID
			p.variants[i].ProductID = product.ID
		}
		if err := m.db.Create(&p.variants).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration) seedPaymentMethods(storeID uint) error {
	var count int64
	m.db.Model(&payment.PaymentMethod{}).Where("store_id = ?", storeID).Count(&count)
	if count > 0 {
		return nil
	}

	methods := []payment.PaymentMethod{
		{
			StoreID:      storeID,
			Name:         "Bank Transfer",
			Kind:         payment.MethodBankTransfer,
			Instructions: "Transfer the order total to account 000-123456 and report the payment with your transfer reference.",
			IsActive:     true,
		},
		{
			StoreID:      storeID,
			Name:         "Cash on Delivery",
			Kind:         payment.MethodCOD,
			Instructions: "Pay the courier on delivery. The payment is verified after the courier settles.",
			IsActive:     true,
		},
	}
	return m.db.Create(&methods).Error
}

// CleanupExpiredData removes stale rows; kept for operational scripts.
func (m *Migration) CleanupExpiredData() error {
	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	return m.db.Where("status = ? AND updated_at < ?", cart.StatusExpired, cutoff).
		Delete(&cart.Cart{}).Error
}
