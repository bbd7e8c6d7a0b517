package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryTotal is the monthly-equivalent spend of one category
type CategoryTotal struct {
	Category Category
	Total    decimal.Decimal
	Count    int
}

// MonthTotal is the amount charged within one calendar month
type MonthTotal struct {
	Month time.Time // first day of the month
	Total decimal.Decimal
}

// Label formats the month as YYYY-MM
func (m MonthTotal) Label() string {
	return m.Month.Format("2006-01")
}

// SimulationOptions describes a what-if view of the dashboard.
// Excluded subscriptions are left out of the committed totals; nothing is persisted.
type SimulationOptions struct {
	Enabled     bool
	ExcludedIDs map[uuid.UUID]bool
}

// DashboardSummary contains the main dashboard metrics
type DashboardSummary struct {
	MonthlySpending  decimal.Decimal
	AnnualForecast   decimal.Decimal
	ActiveCount      int
	GhostCount       int
	GhostMonthly     decimal.Decimal
	GhostAnnual      decimal.Decimal
	MostExpensive    *Subscription
	TopCategory      *CategoryTotal
	MonthlyCount     int
	AnnualCount      int
	Categories       []CategoryTotal
	SteadyForecast   []MonthTotal
	Simulated        bool
	SimulatedSavings decimal.Decimal
	ExcludedCount    int
	NextBillingDates []time.Time
}
