package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func pendingPayment(age time.Duration, amount int64, now time.Time) *Payment {
	return &Payment{
		Status:    StatusPending,
		Amount:    amount,
		CreatedAt: now.Add(-age),
	}
}

func TestPriorityClassification(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name   string
		age    time.Duration
		amount int64
		want   string
	}{
		{"fresh small payment", time.Hour, 5_000, PriorityLow},
		{"old payment", 73 * time.Hour, 5_000, PriorityHigh},
		{"large payment", time.Hour, 50_000, PriorityHigh},
		{"day-old payment", 25 * time.Hour, 5_000, PriorityMedium},
		{"mid-size payment", time.Hour, 10_000, PriorityMedium},
		{"exactly three days", 72 * time.Hour, 5_000, PriorityHigh},
		{"just under a day", 23 * time.Hour, 9_999, PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pendingPayment(tt.age, tt.amount, now)
			assert.Equal(t, tt.want, p.Priority(now))
		})
	}
}

func TestRequiresAttention(t *testing.T) {
	now := time.Now().UTC()

	assert.False(t, pendingPayment(time.Hour, 5_000, now).RequiresAttention(now))
	assert.True(t, pendingPayment(49*time.Hour, 5_000, now).RequiresAttention(now))
	assert.True(t, pendingPayment(time.Hour, 30_000, now).RequiresAttention(now))
	assert.False(t, pendingPayment(47*time.Hour, 29_999, now).RequiresAttention(now))
}

func TestIsPending(t *testing.T) {
	assert.True(t, (&Payment{Status: StatusPending}).IsPending())
	assert.False(t, (&Payment{Status: StatusVerified}).IsPending())
	assert.False(t, (&Payment{Status: StatusRejected}).IsPending())
	assert.False(t, (&Payment{Status: StatusRefunded}).IsPending())
}
