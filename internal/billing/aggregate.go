package billing

import (
	"sort"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Committed returns the active, non-ghost subscriptions that are not in excluded.
// A nil excluded set keeps every committed subscription.
func Committed(subs []*domain.Subscription, excluded map[uuid.UUID]bool) []*domain.Subscription {
	out := make([]*domain.Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub == nil || !sub.IsCommitted() || excluded[sub.ID] {
			continue
		}
		out = append(out, sub)
	}
	return out
}

// Ghosts returns the active planned subscriptions
func Ghosts(subs []*domain.Subscription) []*domain.Subscription {
	out := make([]*domain.Subscription, 0)
	for _, sub := range subs {
		if sub != nil && sub.IsActive && sub.IsGhost {
			out = append(out, sub)
		}
	}
	return out
}

// TotalMonthly sums MonthlyEquivalent over subs
func TotalMonthly(subs []*domain.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, sub := range subs {
		total = total.Add(MonthlyEquivalent(sub))
	}
	return total
}

// TotalAnnual sums AnnualEquivalent over subs
func TotalAnnual(subs []*domain.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, sub := range subs {
		total = total.Add(AnnualEquivalent(sub))
	}
	return total
}

// CategoryBreakdown groups subs by category and sums their monthly equivalents.
// Missing categories fall into Other. Groups are ordered by total descending; equal totals
// keep the order in which their category was first seen.
func CategoryBreakdown(subs []*domain.Subscription) []domain.CategoryTotal {
	index := make(map[domain.Category]int)
	groups := make([]domain.CategoryTotal, 0)

	for _, sub := range subs {
		if sub == nil {
			continue
		}
		cat := sub.Category.OrOther()
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, domain.CategoryTotal{Category: cat, Total: decimal.Zero})
		}
		groups[i].Total = groups[i].Total.Add(MonthlyEquivalent(sub))
		groups[i].Count++
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Total.GreaterThan(groups[b].Total)
	})
	return groups
}

// TopCategory returns the first entry of a breakdown
func TopCategory(breakdown []domain.CategoryTotal) (domain.CategoryTotal, bool) {
	if len(breakdown) == 0 {
		return domain.CategoryTotal{}, false
	}
	return breakdown[0], true
}

// MostExpensive returns the subscription with the highest user share. The first one wins ties.
func MostExpensive(subs []*domain.Subscription) (*domain.Subscription, bool) {
	var best *domain.Subscription
	bestShare := decimal.Zero
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		share := UserShare(sub)
		if best == nil || share.GreaterThan(bestShare) {
			best, bestShare = sub, share
		}
	}
	return best, best != nil
}

// CycleCounts counts subs billed monthly and annually
func CycleCounts(subs []*domain.Subscription) (monthly, annual int) {
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		if IsMonthly(sub.Cycle) {
			monthly++
		} else {
			annual++
		}
	}
	return monthly, annual
}
