package billing

import (
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// EquivalentPrecision is the number of decimal places the equivalents are compared at.
// Dividing by 12 leaves a remainder past decimal.DivisionPrecision, so scaling back up
// is rounded here and a round trip returns the user share at this precision.
const EquivalentPrecision = 10

// IsMonthly is the single cycle policy of the engine: only the monthly literal bills monthly,
// every other value (including empty or unknown cycles) bills once a year.
func IsMonthly(cycle domain.Cycle) bool {
	return cycle == domain.CycleMonthly
}

// UserShare is the caller's part of the charge: Value divided by the shared count
func UserShare(sub *domain.Subscription) decimal.Decimal {
	if sub == nil {
		return decimal.Zero
	}
	return sub.Value.Div(decimal.NewFromInt32(sub.SharedCount()))
}

// MonthlyEquivalent normalizes the user share to one month
func MonthlyEquivalent(sub *domain.Subscription) decimal.Decimal {
	share := UserShare(sub)
	if sub == nil || IsMonthly(sub.Cycle) {
		return share
	}
	return share.Div(twelve)
}

// AnnualEquivalent normalizes the user share to one year. Monthly shares are scaled
// up and rounded to EquivalentPrecision.
func AnnualEquivalent(sub *domain.Subscription) decimal.Decimal {
	share := UserShare(sub)
	if sub != nil && IsMonthly(sub.Cycle) {
		return share.Mul(twelve).Round(EquivalentPrecision)
	}
	return share
}
