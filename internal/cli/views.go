package cli

import (
	"fmt"
	"strings"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/service"
	"github.com/shopspring/decimal"
)

// SummaryTable lays out the dashboard metrics
func SummaryTable(s *domain.DashboardSummary) Table {
	rows := [][]string{
		{"Monthly spending", FormatMoney(s.MonthlySpending)},
		{"Annual forecast", FormatMoney(s.AnnualForecast)},
		{"Active", fmt.Sprintf("%d (%d mo / %d yr)", s.ActiveCount, s.MonthlyCount, s.AnnualCount)},
		{"---"},
		{"Ghosts", fmt.Sprintf("%d", s.GhostCount)},
		{"Ghost monthly", FormatMoney(s.GhostMonthly)},
		{"Ghost annual", FormatMoney(s.GhostAnnual)},
		{"---"},
	}

	if s.TopCategory != nil {
		rows = append(rows, []string{"Top category", fmt.Sprintf("%s %s", s.TopCategory.Category, FormatMoney(s.TopCategory.Total))})
	} else {
		rows = append(rows, []string{"Top category", "-"})
	}
	if s.MostExpensive != nil {
		rows = append(rows, []string{"Most expensive", fmt.Sprintf("%s %s", s.MostExpensive.Name, FormatMoney(billing.UserShare(s.MostExpensive)))})
	} else {
		rows = append(rows, []string{"Most expensive", "-"})
	}

	if s.Simulated {
		rows = append(rows,
			[]string{"---"},
			[]string{"Excluded", fmt.Sprintf("%d", s.ExcludedCount)},
			[]string{"Monthly savings", FormatMoney(s.SimulatedSavings)},
		)
	}

	return Table{Headers: []string{"Metric", "Value"}, Rows: rows}
}

// UpcomingTable lists the next billing dates
func UpcomingTable(s *domain.DashboardSummary) Table {
	rows := make([][]string, 0, len(s.NextBillingDates))
	for i, d := range s.NextBillingDates {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), FormatDate(d)})
	}
	return Table{Title: "Next charges", Headers: []string{"#", "Date"}, Rows: rows}
}

// SubscriptionsTable lists subscriptions with their share and monthly equivalent.
// Ghosts are marked, inactive entries are dimmed by a trailing note.
func SubscriptionsTable(subs []*domain.Subscription) Table {
	rows := make([][]string, 0, len(subs))
	for _, sub := range subs {
		name := sub.Name
		switch {
		case !sub.IsActive:
			name += " (paused)"
		case sub.IsGhost:
			name = RenderGhost(name + " (ghost)")
		}
		rows = append(rows, []string{
			name,
			string(sub.Category.OrOther()),
			FormatCycle(sub.Cycle),
			FormatMoney(sub.Value),
			FormatShared(sub),
			FormatMoney(billing.MonthlyEquivalent(sub)),
			FormatDate(sub.BillingDate),
		})
	}
	return Table{
		Title:   "Subscriptions",
		Headers: []string{"Name", "Category", "Cycle", "Value", "Split", "Monthly", "Billing"},
		Rows:    rows,
	}
}

// CalendarTable lists the projected occurrences of each entry. Only the first perRow
// dates are shown; the rest are counted.
func CalendarTable(cal *service.Calendar, perRow int) Table {
	rows := make([][]string, 0, len(cal.Entries))
	for _, e := range cal.Entries {
		name := e.Subscription.Name
		if e.Ghost {
			name = RenderGhost(name + " (ghost)")
		}

		shown := e.Dates
		if perRow > 0 && len(shown) > perRow {
			shown = shown[:perRow]
		}
		labels := make([]string, len(shown))
		for i, d := range shown {
			labels[i] = FormatDate(d)
		}
		dates := strings.Join(labels, " ")
		if extra := len(e.Dates) - len(shown); extra > 0 {
			dates += fmt.Sprintf(" +%d", extra)
		}

		rows = append(rows, []string{name, FormatMoney(billing.UserShare(e.Subscription)), dates})
	}
	return Table{
		Title:   fmt.Sprintf("Billing calendar (%d periods ahead)", cal.Horizon),
		Headers: []string{"Subscription", "Share", "Dates"},
		Rows:    rows,
	}
}

// DayTable lists the charges landing on one day. Ghosts are listed but left out of the total.
func DayTable(subs []*domain.Subscription) Table {
	rows := make([][]string, 0, len(subs)+2)
	total := decimal.Zero
	for _, sub := range subs {
		name := sub.Name
		if sub.IsGhost {
			name = RenderGhost(name + " (ghost)")
		} else {
			total = total.Add(billing.UserShare(sub))
		}
		rows = append(rows, []string{name, FormatCycle(sub.Cycle), FormatMoney(billing.UserShare(sub))})
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", FormatMoney(total)})
	return Table{Headers: []string{"Subscription", "Cycle", "Share"}, Rows: rows}
}

// CategoryTable renders a category breakdown with each category's part of the total
func CategoryTable(breakdown []domain.CategoryTotal) Table {
	total := decimal.Zero
	for _, ct := range breakdown {
		total = total.Add(ct.Total)
	}

	rows := make([][]string, 0, len(breakdown)+2)
	for _, ct := range breakdown {
		pct := "0%"
		if total.IsPositive() {
			pct = ct.Total.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
		}
		rows = append(rows, []string{string(ct.Category), fmt.Sprintf("%d", ct.Count), FormatMoney(ct.Total), pct})
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", FormatMoney(total), ""})

	return Table{
		Title:   "Monthly spend by category",
		Headers: []string{"Category", "Subs", "Monthly", "Share"},
		Rows:    rows,
	}
}

// MonthTable renders a month series with a closing total row
func MonthTable(title string, months []domain.MonthTotal) Table {
	total := decimal.Zero
	rows := make([][]string, 0, len(months)+2)
	for _, m := range months {
		total = total.Add(m.Total)
		rows = append(rows, []string{m.Label(), FormatMoney(m.Total)})
	}
	rows = append(rows, []string{"---"}, []string{"Total", FormatMoney(total)})
	return Table{Title: title, Headers: []string{"Month", "Amount"}, Rows: rows}
}
