// internal/pkg/notify/notifier.go
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Event identifies what the customer should be told about.
type Event string

const (
	EventOrderPaid       Event = "order_paid"
	EventOrderShipped    Event = "order_shipped"
	EventOrderDelivered  Event = "order_delivered"
	EventOrderCancelled  Event = "order_cancelled"
	EventPaymentVerified Event = "payment_verified"
	EventPaymentRejected Event = "payment_rejected"
)

// Intent is a request to notify a customer. The core never delivers
// anything itself; it records the intent and leaves delivery (and flipping
// the customer_notified flag) to an external notifier.
type Intent struct {
	Event       Event  `json:"event"`
	StoreID     uint   `json:"store_id"`
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	PaymentID   uint   `json:"payment_id,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Notifier receives notification intents emitted by the lifecycle engines.
type Notifier interface {
	Notify(ctx context.Context, intent Intent)
}

// LogNotifier writes intents to the structured log. It is the default
// implementation wired in development; production deployments replace it
// with a queue-backed notifier.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a notifier that records intents via logrus.
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the intent.
func (n *LogNotifier) Notify(_ context.Context, intent Intent) {
	n.logger.WithFields(logrus.Fields{
		"event":        intent.Event,
		"store_id":     intent.StoreID,
		"order_id":     intent.OrderID,
		"order_number": intent.OrderNumber,
		"payment_id":   intent.PaymentID,
	}).Info("customer notification intent")
}
