package billing

import (
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/util"
)

// DefaultHorizon is the number of occurrences appended after the billing date
const DefaultHorizon = 12

// NextOccurrence advances d by one billing period
func NextOccurrence(d time.Time, cycle domain.Cycle) time.Time {
	if IsMonthly(cycle) {
		return util.AddMonths(d, 1)
	}
	return util.AddYears(d, 1)
}

// FirstOnOrAfter steps d forward by whole periods until it is no longer before cutoff
func FirstOnOrAfter(d time.Time, cycle domain.Cycle, cutoff time.Time) time.Time {
	for d.Before(cutoff) {
		d = NextOccurrence(d, cycle)
	}
	return d
}

// ProjectSubscription lists the billing occurrences of a single subscription.
//
// The billing date itself is included when it is after now or on the same calendar day
// (in now's location). The next horizon periods are then appended unconditionally, even
// if some of them still lie in the past. Inactive subscriptions produce no dates.
func ProjectSubscription(sub *domain.Subscription, horizon int, now time.Time) []time.Time {
	if sub == nil || !sub.IsActive {
		return nil
	}
	if horizon < 0 {
		horizon = 0
	}

	dates := make([]time.Time, 0, horizon+1)
	next := sub.BillingDate
	if next.After(now) || util.SameDay(next, now, now.Location()) {
		dates = append(dates, next)
	}
	for i := 0; i < horizon; i++ {
		next = NextOccurrence(next, sub.Cycle)
		dates = append(dates, next)
	}
	return dates
}

// ProjectBillingDates concatenates ProjectSubscription for every active subscription, ghosts
// included, in input order. The result is neither sorted nor deduplicated.
func ProjectBillingDates(subs []*domain.Subscription, horizon int, now time.Time) []time.Time {
	var dates []time.Time
	for _, sub := range subs {
		dates = append(dates, ProjectSubscription(sub, horizon, now)...)
	}
	return dates
}
