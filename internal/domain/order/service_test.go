package order

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
	"github.com/your-org/storefront-backend/internal/pkg/tenant"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type captureNotifier struct {
	intents []notify.Intent
}

func (c *captureNotifier) Notify(_ context.Context, intent notify.Intent) {
	c.intents = append(c.intents, intent)
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *captureNotifier) {
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

	notifier := &captureNotifier{}
	return NewService(db, log, notifier), mock, notifier
}

func orderRows(id, storeID uint, number string, status Status) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "store_id", "order_number", "email", "status", "subtotal", "total"}).
		AddRow(id, storeID, number, "buyer@example.com", string(status), 10000, 10000)
}

func TestUpdateStatusLegalTransition(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(10, 1, 1).
		WillReturnRows(orderRows(10, 1, "ORD-20260827-000001", StatusPending))
	mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The ledger entry must record the status the order left, not the one
	// it entered: (previous_status, new_status) = (pending, paid).
	mock.ExpectQuery(`INSERT INTO "order_status_histories"`).
		WithArgs(10, 1, "pending", "paid", "", "", nil, false, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	o, err := svc.UpdateStatus(context.Background(), tc, 10, &TransitionRequest{Status: StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, o.Status)

	require.Len(t, notifier.intents, 1)
	assert.Equal(t, notify.EventOrderPaid, notifier.intents[0].Event)
	assert.Equal(t, "ORD-20260827-000001", notifier.intents[0].OrderNumber)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusIllegalTransitionRollsBack(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(10, 1, 1).
		WillReturnRows(orderRows(10, 1, "ORD-20260827-000001", StatusShipped))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(context.Background(), tc, 10, &TransitionRequest{Status: StatusCancelled})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindIllegalTransition))
	assert.Empty(t, notifier.intents)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusShipRequiresTracking(t *testing.T) {
	svc, mock, _ := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(10, 1, 1).
		WillReturnRows(orderRows(10, 1, "ORD-20260827-000001", StatusProcessing))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(context.Background(), tc, 10, &TransitionRequest{Status: StatusShipped})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Equal(t, "order/shipment_details_required", apperrors.CodeOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRequiresTenant(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), tenant.Context{}, 10, &TransitionRequest{Status: StatusPaid})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTenantMismatch))
}

func TestCancelMasksForeignOrder(t *testing.T) {
	svc, mock, _ := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	// Order belongs to no user; a customer cancel must see not-found.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(10, 1, 1).
		WillReturnRows(orderRows(10, 1, "ORD-20260827-000001", StatusPending))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), tc, 55, 10, "changed my mind")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkHistoryNotifiedMissingRow(t *testing.T) {
	svc, mock, _ := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "order_status_histories" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := svc.MarkHistoryNotified(context.Background(), tc, 99)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}
