package payment

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/order"
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

func paymentRows(id, storeID, orderID uint, status string, amount int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "store_id", "order_id", "payment_method_id", "amount", "reference_number", "status"}).
		AddRow(id, storeID, orderID, 1, amount, "PAY-test", status)
}

func orderRows(id, storeID uint, number string, status order.Status, total int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "store_id", "order_number", "email", "status", "subtotal", "total"}).
		AddRow(id, storeID, number, "buyer@example.com", string(status), total, total)
}

func TestVerifyAdvancesPendingOrder(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	tc := tenant.Context{StoreID: 1}
	admin := uint(9)
	tc.ActorID = &admin

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE "payments"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(5, 1, 1).
		WillReturnRows(paymentRows(5, 1, 10, StatusPending, 10000))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "payment_verifications"`).
		WithArgs(1, 5, 9, ActionVerified, "receipt checked", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(10, 1, 1).
		WillReturnRows(orderRows(10, 1, "ORD-20260827-000001", order.StatusPending, 10000))
	mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The verify advance appends a (pending, processing) ledger entry
	// attributed to the acting admin.
	mock.ExpectQuery(`INSERT INTO "order_status_histories"`).
		WithArgs(10, 1, "pending", "processing", "payment verified", "", 9, false, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	p, err := svc.Verify(context.Background(), tc, 5, "receipt checked")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, p.Status)
	require.NotNil(t, p.VerifiedBy)
	assert.Equal(t, admin, *p.VerifiedBy)

	require.Len(t, notifier.intents, 1)
	assert.Equal(t, notify.EventPaymentVerified, notifier.intents[0].Event)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRejectsNonPending(t *testing.T) {
	svc, mock, notifier := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE "payments"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(5, 1, 1).
		WillReturnRows(paymentRows(5, 1, 10, StatusVerified, 10000))
	mock.ExpectRollback()

	_, err := svc.Verify(context.Background(), tc, 5, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindIllegalTransition))
	assert.Equal(t, "payment/not_pending", apperrors.CodeOf(err))
	assert.Empty(t, notifier.intents)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyConflictWhenRaced(t *testing.T) {
	svc, mock, _ := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE "payments"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(5, 1, 1).
		WillReturnRows(paymentRows(5, 1, 10, StatusPending, 10000))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Verify(context.Background(), tc, 5, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportBalanceExceeded(t *testing.T) {
	svc, mock, _ := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(10, 1, 1).
		WillReturnRows(orderRows(10, 1, "ORD-20260827-000001", order.StatusPending, 10000))
	mock.ExpectQuery(`SELECT \* FROM "payment_methods"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "name", "kind", "is_active"}).
			AddRow(1, 1, "Bank transfer", MethodBankTransfer, true))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(5000))
	mock.ExpectRollback()

	_, err := svc.Report(context.Background(), tc, nil, 10, &ReportRequest{
		PaymentMethodID: 1,
		Amount:          6000,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.Equal(t, "payment/balance_exceeded", apperrors.CodeOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportForeignMethodFailsClosed(t *testing.T) {
	svc, mock, _ := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."id" = \$1 AND store_id = \$2 .*FOR UPDATE`).
		WithArgs(10, 1, 1).
		WillReturnRows(orderRows(10, 1, "ORD-20260827-000001", order.StatusPending, 10000))
	mock.ExpectQuery(`SELECT \* FROM "payment_methods"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "name", "kind", "is_active"}).
			AddRow(1, 2, "Bank transfer", MethodBankTransfer, true))
	mock.ExpectRollback()

	_, err := svc.Report(context.Background(), tc, nil, 10, &ReportRequest{
		PaymentMethodID: 1,
		Amount:          1000,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTenantMismatch))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectRequiresReason(t *testing.T) {
	svc, _, _ := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	_, err := svc.Reject(context.Background(), tc, 5, "", "notes")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestReportRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestService(t)
	tc := tenant.Context{StoreID: 1}

	_, err := svc.Report(context.Background(), tc, nil, 10, &ReportRequest{PaymentMethodID: 1, Amount: 0})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
