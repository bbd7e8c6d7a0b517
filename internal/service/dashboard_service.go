package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/metrics"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// UpcomingChargesLimit caps the number of upcoming dates in the summary
const UpcomingChargesLimit = 5

// Display list sort keys
const (
	SortByBillingDate = "billingDate"
	SortByValue       = "value"
	SortByName        = "name"
	SortOrderAsc      = "asc"
	SortOrderDesc     = "desc"
)

// SimulationRecorder is told about every simulated dashboard view
type SimulationRecorder interface {
	RecordSimulation(ctx context.Context, workspaceID int32, savings decimal.Decimal) ([]domain.AchievementID, error)
}

// DisplayQuery narrows and orders the dashboard subscription list
type DisplayQuery struct {
	Category domain.Category
	Search   string
	SortBy   string
	Order    string
}

// DashboardService computes dashboard metrics
type DashboardService struct {
	subRepo   domain.SubscriptionRepository
	simulator SimulationRecorder
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(subRepo domain.SubscriptionRepository) *DashboardService {
	return &DashboardService{subRepo: subRepo}
}

// SetSimulationRecorder sets the hook called for simulated views
func (s *DashboardService) SetSimulationRecorder(r SimulationRecorder) {
	s.simulator = r
}

// GetSummary builds the dashboard for the workspace and reports simulated views
// to the simulation recorder.
func (s *DashboardService) GetSummary(ctx context.Context, workspaceID int32, sim domain.SimulationOptions, now time.Time) (*domain.DashboardSummary, error) {
	subs, err := s.subRepo.ListByWorkspace(ctx, workspaceID, domain.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := Summarize(subs, sim, now)
	metrics.ObserveEngine("summary", time.Since(start))

	if sim.Enabled && s.simulator != nil {
		if _, err := s.simulator.RecordSimulation(ctx, workspaceID, summary.SimulatedSavings); err != nil {
			log.Warn().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to record simulation")
		}
	}

	return summary, nil
}

// Summarize computes the dashboard metrics of subs. With simulation enabled the
// excluded subscriptions are left out of the spending totals; the chart, the top
// category, the most expensive entry and the spend series always use every
// committed subscription.
func Summarize(subs []*domain.Subscription, sim domain.SimulationOptions, now time.Time) *domain.DashboardSummary {
	committed := billing.Committed(subs, nil)
	counted := committed
	if sim.Enabled {
		counted = billing.Committed(subs, sim.ExcludedIDs)
	}
	ghosts := billing.Ghosts(subs)
	breakdown := billing.CategoryBreakdown(committed)
	monthly, annual := billing.CycleCounts(committed)

	summary := &domain.DashboardSummary{
		MonthlySpending:  billing.TotalMonthly(counted),
		AnnualForecast:   billing.TotalAnnual(counted),
		ActiveCount:      len(counted),
		GhostCount:       len(ghosts),
		GhostMonthly:     billing.TotalMonthly(ghosts),
		GhostAnnual:      billing.TotalAnnual(ghosts),
		MonthlyCount:     monthly,
		AnnualCount:      annual,
		Categories:       breakdown,
		SteadyForecast:   billing.SteadyStateForecast(committed, now, billing.SteadyForecastMonths),
		Simulated:        sim.Enabled,
		SimulatedSavings: decimal.Zero,
		NextBillingDates: upcomingCharges(subs, now),
	}
	if top, ok := billing.TopCategory(breakdown); ok {
		summary.TopCategory = &top
	}
	if sub, ok := billing.MostExpensive(committed); ok {
		summary.MostExpensive = sub
	}

	if sim.Enabled {
		summary.ExcludedCount = len(committed) - len(counted)
		summary.SimulatedSavings = billing.TotalMonthly(committed).Sub(summary.MonthlySpending)
	}
	return summary
}

// upcomingCharges returns the earliest projected dates from today on
func upcomingCharges(subs []*domain.Subscription, now time.Time) []time.Time {
	today := util.StartOfDay(now)
	upcoming := make([]time.Time, 0)
	for _, d := range billing.ProjectBillingDates(subs, billing.DefaultHorizon, now) {
		if !d.Before(today) {
			upcoming = append(upcoming, d)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].Before(upcoming[j]) })
	if len(upcoming) > UpcomingChargesLimit {
		upcoming = upcoming[:UpcomingChargesLimit]
	}
	return upcoming
}

// ListForDisplay returns the committed subscriptions filtered by category,
// searched by name and sorted for the dashboard table
func (s *DashboardService) ListForDisplay(ctx context.Context, workspaceID int32, q DisplayQuery) ([]*domain.Subscription, error) {
	less, err := displayOrder(q.SortBy, q.Order)
	if err != nil {
		return nil, err
	}

	subs, err := s.subRepo.ListByWorkspace(ctx, workspaceID, domain.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]*domain.Subscription, 0)
	for _, sub := range billing.Committed(subs, nil) {
		if q.Category != "" && sub.Category.OrOther() != q.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(sub.Name), search) {
			continue
		}
		out = append(out, sub)
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

func displayOrder(sortBy, order string) (func(a, b *domain.Subscription) bool, error) {
	var cmp func(a, b *domain.Subscription) int
	switch sortBy {
	case "", SortByBillingDate:
		cmp = func(a, b *domain.Subscription) int { return a.BillingDate.Compare(b.BillingDate) }
	case SortByValue:
		cmp = func(a, b *domain.Subscription) int { return billing.UserShare(a).Cmp(billing.UserShare(b)) }
	case SortByName:
		cmp = func(a, b *domain.Subscription) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidInput, sortBy)
	}

	switch order {
	case "", SortOrderAsc:
		return func(a, b *domain.Subscription) bool { return cmp(a, b) < 0 }, nil
	case SortOrderDesc:
		return func(a, b *domain.Subscription) bool { return cmp(a, b) > 0 }, nil
	default:
		return nil, fmt.Errorf("%w: unknown order %q", domain.ErrInvalidInput, order)
	}
}
