package service

import (
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func i32(v int32) *int32 {
	return &v
}

// seedSub stores an active, committed subscription
func seedSub(repo *testutil.MockSubscriptionRepository, workspaceID int32, name, value string, cycle domain.Cycle, billingDate time.Time) *domain.Subscription {
	return repo.AddSubscription(&domain.Subscription{
		WorkspaceID: workspaceID,
		Name:        name,
		Value:       decimal.RequireFromString(value),
		Cycle:       cycle,
		BillingDate: billingDate,
		Category:    domain.CategoryStreaming,
		IsActive:    true,
	})
}

func validInput() SubscriptionInput {
	return SubscriptionInput{
		Name:        "Netflix Premium",
		Value:       decimal.RequireFromString("55.90"),
		Cycle:       domain.CycleMonthly,
		BillingDate: day(2024, time.January, 15),
		Category:    domain.CategoryStreaming,
	}
}
