package billing

import (
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/shopspring/decimal"
)

const (
	// ForecastMonths is the window of the charge forecast, starting at the current month
	ForecastMonths = 12
	// ForecastSteps bounds how many occurrences are walked per subscription
	ForecastSteps = 24
	// SteadyForecastMonths is the length of the dashboard spend series
	SteadyForecastMonths = 6
)

// MonthlyChargeForecast answers "what raw charges land in month X".
//
// It opens ForecastMonths buckets starting at now's month, walks ForecastSteps occurrences of
// every committed subscription from its billing date and adds the full user share (not the
// monthly equivalent) to the bucket of each occurrence. A monthly subscription therefore hits
// most buckets while an annual one hits at most one.
func MonthlyChargeForecast(subs []*domain.Subscription, now time.Time) []domain.MonthTotal {
	loc := now.Location()
	start := util.StartOfMonth(now)

	buckets := make([]domain.MonthTotal, ForecastMonths)
	for i := range buckets {
		buckets[i] = domain.MonthTotal{Month: util.AddMonths(start, i), Total: decimal.Zero}
	}

	for _, sub := range subs {
		if sub == nil || !sub.IsCommitted() {
			continue
		}
		share := UserShare(sub)
		next := sub.BillingDate
		for step := 0; step < ForecastSteps; step++ {
			if i := monthIndex(start, next.In(loc)); i >= 0 && i < ForecastMonths {
				buckets[i].Total = buckets[i].Total.Add(share)
			}
			next = NextOccurrence(next, sub.Cycle)
		}
	}
	return buckets
}

// SteadyStateForecast repeats the committed monthly total over the next months.
// It is the dashboard's "spend per month" series and is not derived from occurrences.
func SteadyStateForecast(subs []*domain.Subscription, now time.Time, months int) []domain.MonthTotal {
	if months <= 0 {
		months = SteadyForecastMonths
	}
	total := TotalMonthly(Committed(subs, nil))
	start := util.StartOfMonth(now)

	series := make([]domain.MonthTotal, months)
	for i := range series {
		series[i] = domain.MonthTotal{Month: util.AddMonths(start, i), Total: total}
	}
	return series
}

// monthIndex is the number of whole calendar months from start to t
func monthIndex(start, t time.Time) int {
	return (t.Year()-start.Year())*12 + int(t.Month()) - int(start.Month())
}
