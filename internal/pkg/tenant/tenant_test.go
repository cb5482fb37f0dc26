package tenant

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRequireFailsClosed(t *testing.T) {
	var tc Context
	err := tc.Require()
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTenantMismatch))

	tc.StoreID = 7
	assert.NoError(t, tc.Require())
}

func TestOwns(t *testing.T) {
	tc := Context{StoreID: 3}

	assert.NoError(t, tc.Owns(3))

	err := tc.Owns(4)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTenantMismatch))
	assert.Equal(t, "tenant/mismatch", apperrors.CodeOf(err))
}

func TestActor(t *testing.T) {
	tc := Context{StoreID: 1}
	assert.Equal(t, uint(0), tc.Actor())

	actor := uint(42)
	tc.ActorID = &actor
	assert.Equal(t, uint(42), tc.Actor())
}

func TestScopeFiltersByStore(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE store_id = \$1`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id"}).AddRow(1, 42))

	var rows []map[string]interface{}
	err = db.Scopes(Scope(Context{StoreID: 42})).Table("orders").Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContextRoundTrip(t *testing.T) {
	tc := Context{StoreID: 9}
	ctx := NewContext(context.Background(), tc)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, tc, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
