package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecord is one elapsed charge of a subscription
type PaymentRecord struct {
	ID               uuid.UUID       `json:"id"`
	WorkspaceID      int32           `json:"workspaceId"`
	SubscriptionID   uuid.UUID       `json:"subscriptionId"`
	SubscriptionName string          `json:"subscriptionName"`
	Amount           decimal.Decimal `json:"amount"`
	Category         Category        `json:"category"`
	PaidAt           time.Time       `json:"paidAt"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// PaymentRepository defines the interface for payment history persistence.
// Record must be idempotent on (SubscriptionID, PaidAt) and report whether a row was inserted.
type PaymentRepository interface {
	Record(ctx context.Context, payment *PaymentRecord) (inserted bool, err error)
	ListByWorkspace(ctx context.Context, workspaceID int32, from, to *time.Time) ([]*PaymentRecord, error)
}
