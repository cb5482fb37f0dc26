// internal/domain/order/status.go
package order

import (
	"github.com/your-org/storefront-backend/internal/pkg/apperrors"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
)

// Status is an order's lifecycle state.
type Status string

// Order lifecycle states. The happy path is pending → paid → processing →
// shipped → delivered. refunded is reserved for the payment subsystem's
// terminal check; nothing transitions into it here.
const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// transitions is the single source of truth for legality. A status absent
// from a target list is unreachable from that state.
var transitions = map[Status][]Status{
	StatusPending:    {StatusPaid, StatusProcessing, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusShipped, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// timestampColumns maps a target status to the order column stamped on entry.
var timestampColumns = map[Status]string{
	StatusPaid:      "paid_at",
	StatusShipped:   "shipped_at",
	StatusDelivered: "delivered_at",
	StatusCancelled: "cancelled_at",
}

// notifiableEvents maps statuses whose entry triggers a customer
// notification intent.
var notifiableEvents = map[Status]notify.Event{
	StatusPaid:      notify.EventOrderPaid,
	StatusShipped:   notify.EventOrderShipped,
	StatusDelivered: notify.EventOrderDelivered,
	StatusCancelled: notify.EventOrderCancelled,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether next is legal from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsCancellable reports whether the order can still be cancelled.
func (s Status) IsCancellable() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// TerminalForPayment reports whether the order no longer accepts payment
// reports.
func (s Status) TerminalForPayment() bool {
	return s == StatusCancelled || s == StatusDelivered || s == StatusRefunded
}

// timestampColumn returns the order column stamped when entering s, or "".
func (s Status) timestampColumn() string {
	return timestampColumns[s]
}

// notifiableEvent returns the customer notification event for entering s,
// or "" when entry is silent.
func (s Status) notifiableEvent() notify.Event {
	return notifiableEvents[s]
}

// validateTransition checks legality of current → next, rejecting no-ops and
// unknown targets with typed errors naming the pair.
func validateTransition(current, next Status) error {
	if !next.Valid() {
		return apperrors.Validation("order/unknown_status", "unknown order status %q", next)
	}
	if current == next {
		return apperrors.IllegalTransition("order/noop_transition", "order is already %s", current)
	}
	if current.IsTerminal() {
		return apperrors.IllegalTransition("order/terminal_state", "order in terminal state %s cannot transition to %s", current, next)
	}
	if !current.CanTransitionTo(next) {
		return apperrors.IllegalTransition("order/illegal_transition", "cannot transition order from %s to %s", current, next)
	}
	return nil
}
