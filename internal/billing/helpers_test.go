package billing

import (
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func int32Ptr(v int32) *int32 {
	return &v
}

func newSub(value string, cycle domain.Cycle) *domain.Subscription {
	return &domain.Subscription{
		ID:          uuid.New(),
		Name:        "Test",
		Value:       decimal.RequireFromString(value),
		Cycle:       cycle,
		BillingDate: date(2024, 1, 15),
		Category:    domain.CategoryStreaming,
		IsActive:    true,
	}
}
