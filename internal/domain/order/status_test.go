package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
)

func TestHappyPathTransitions(t *testing.T) {
	path := []Status{StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, path[i].CanTransitionTo(path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestCancellableSet(t *testing.T) {
	cancellable := map[Status]bool{
		StatusPending:    true,
		StatusPaid:       true,
		StatusProcessing: true,
		StatusShipped:    false,
		StatusDelivered:  false,
		StatusCancelled:  false,
		StatusRefunded:   false,
	}
	for status, want := range cancellable {
		assert.Equal(t, want, status.IsCancellable(), "status %s", status)
	}
}

func TestTerminalStates(t *testing.T) {
	for _, status := range []Status{StatusDelivered, StatusCancelled, StatusRefunded} {
		assert.True(t, status.IsTerminal(), "status %s", status)
		for _, next := range []Status{StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
			assert.False(t, status.CanTransitionTo(next), "%s -> %s", status, next)
		}
	}

	for _, status := range []Status{StatusPending, StatusPaid, StatusProcessing, StatusShipped} {
		assert.False(t, status.IsTerminal(), "status %s", status)
	}
}

func TestRefundedUnreachable(t *testing.T) {
	for from := range transitions {
		assert.False(t, from.CanTransitionTo(StatusRefunded), "from %s", from)
	}
}

func TestValidateTransition(t *testing.T) {
	err := validateTransition(StatusPending, StatusPaid)
	assert.NoError(t, err)

	err = validateTransition(StatusPending, StatusPending)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindIllegalTransition))
	assert.Equal(t, "order/noop_transition", apperrors.CodeOf(err))

	err = validateTransition(StatusDelivered, StatusCancelled)
	require.Error(t, err)
	assert.Equal(t, "order/terminal_state", apperrors.CodeOf(err))

	err = validateTransition(StatusShipped, StatusCancelled)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindIllegalTransition))
	assert.Equal(t, "order/illegal_transition", apperrors.CodeOf(err))

	err = validateTransition(StatusPending, Status("misplaced"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestTerminalForPayment(t *testing.T) {
	assert.True(t, StatusCancelled.TerminalForPayment())
	assert.True(t, StatusDelivered.TerminalForPayment())
	assert.True(t, StatusRefunded.TerminalForPayment())

	assert.False(t, StatusPending.TerminalForPayment())
	assert.False(t, StatusPaid.TerminalForPayment())
	assert.False(t, StatusProcessing.TerminalForPayment())
	assert.False(t, StatusShipped.TerminalForPayment())
}

func TestTimestampColumns(t *testing.T) {
	assert.Equal(t, "paid_at", StatusPaid.timestampColumn())
	assert.Equal(t, "shipped_at", StatusShipped.timestampColumn())
	assert.Equal(t, "delivered_at", StatusDelivered.timestampColumn())
	assert.Equal(t, "cancelled_at", StatusCancelled.timestampColumn())
	assert.Equal(t, "", StatusProcessing.timestampColumn())
	assert.Equal(t, "", StatusPending.timestampColumn())
}

func TestNotifiableEvents(t *testing.T) {
	assert.Equal(t, notify.EventOrderPaid, StatusPaid.notifiableEvent())
	assert.Equal(t, notify.EventOrderShipped, StatusShipped.notifiableEvent())
	assert.Equal(t, notify.EventOrderDelivered, StatusDelivered.notifiableEvent())
	assert.Equal(t, notify.EventOrderCancelled, StatusCancelled.notifiableEvent())
	assert.Equal(t, notify.Event(""), StatusProcessing.notifiableEvent())
}
