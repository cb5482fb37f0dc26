package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/tenant"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{}
	carts := cart.NewService(db, cfg, catalog.NewService(db))
	return NewService(db, log, carts), mock
}

func shippingAddress() order.Address {
	return order.Address{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		AddressLine1: "1 Analytical Way",
		City:         "London",
		PostalCode:   "N1 9GU",
		Country:      "GB",
	}
}

func TestCheckoutNoActiveCart(t *testing.T) {
	svc, mock := newTestService(t)
	tc := tenant.Context{StoreID: 1}
	session := "sess-1"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "carts" WHERE session_id = \$1 AND \(status = \$2 AND expires_at > \$3\) AND store_id = \$4 .*FOR UPDATE`).
		WithArgs(session, cart.StatusActive, sqlmock.AnyArg(), 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.Checkout(context.Background(), tc, cart.Owner{SessionID: session}, &Request{
		Email:           "buyer@example.com",
		ShippingAddress: shippingAddress(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	assert.Equal(t, "cart/no_active_cart", apperrors.CodeOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, mock := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "carts" WHERE session_id = \$1 AND \(status = \$2 AND expires_at > \$3\) AND store_id = \$4 .*FOR UPDATE`).
		WithArgs("sess-1", cart.StatusActive, sqlmock.AnyArg(), 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "session_id", "status"}).
			AddRow(3, 1, "sess-1", cart.StatusActive))
	mock.ExpectQuery(`SELECT \* FROM "cart_items" WHERE cart_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.Checkout(context.Background(), tc, cart.Owner{SessionID: "sess-1"}, &Request{
		Email:           "buyer@example.com",
		ShippingAddress: shippingAddress(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Equal(t, "checkout/empty_cart", apperrors.CodeOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutOrderNumberConflict(t *testing.T) {
	svc, mock := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "carts" WHERE session_id = \$1 AND \(status = \$2 AND expires_at > \$3\) AND store_id = \$4 .*FOR UPDATE`).
		WithArgs("sess-1", cart.StatusActive, sqlmock.AnyArg(), 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "session_id", "status"}).
			AddRow(3, 1, "sess-1", cart.StatusActive))
	mock.ExpectQuery(`SELECT \* FROM "cart_items" WHERE cart_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cart_id", "store_id", "product_id", "quantity", "unit_price"}).
			AddRow(7, 3, 1, 2, 1, 2500))
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"\."id" = \$1 AND store_id = \$2`).
		WithArgs(2, 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "name", "slug", "is_active"}).
			AddRow(2, 1, "Classic Tee", "classic-tee", true))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// Another checkout grabbed the same order number first; the unique
	// index rejects ours and the whole transaction rolls back.
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.Checkout(context.Background(), tc, cart.Owner{SessionID: "sess-1"}, &Request{
		Email:           "buyer@example.com",
		ShippingAddress: shippingAddress(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Equal(t, "checkout/order_number_conflict", apperrors.CodeOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	_, err := svc.Checkout(context.Background(), tc, cart.Owner{SessionID: "sess-1"}, &Request{
		ShippingAddress: shippingAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, "checkout/email_required", apperrors.CodeOf(err))

	_, err = svc.Checkout(context.Background(), tc, cart.Owner{SessionID: "sess-1"}, &Request{
		Email: "buyer@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, "checkout/shipping_address_required", apperrors.CodeOf(err))
}

func TestResolveBilling(t *testing.T) {
	shipping := shippingAddress()
	billing := order.Address{FirstName: "Bill", AddressLine1: "2 Ledger St", City: "Leeds", Country: "GB"}

	assert.Equal(t, shipping, resolveBilling(shipping, nil, false))
	assert.Equal(t, shipping, resolveBilling(shipping, &order.Address{}, false))
	assert.Equal(t, shipping, resolveBilling(shipping, &billing, true))
	assert.Equal(t, billing, resolveBilling(shipping, &billing, false))
}
