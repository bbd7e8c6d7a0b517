// Package cli loads subscriptions from local files and renders engine results for the terminal.
package cli

import (
	"strings"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with two decimals and comma thousands separators.
// e.g., 1234.5 -> "1,234.50", -42 -> "-42.00"
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	return sign + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDate formats a calendar day as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatCycle returns the short label of a billing cycle. Unknown cycles bill annually.
func FormatCycle(c domain.Cycle) string {
	if c == domain.CycleMonthly {
		return "mo"
	}
	return "yr"
}

// FormatShared describes how a charge is split, or "-" when it is not
func FormatShared(sub *domain.Subscription) string {
	if sub.SharedCount() <= 1 {
		return "-"
	}
	return "1/" + decimal.NewFromInt32(sub.SharedCount()).String()
}
