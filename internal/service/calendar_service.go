package service

import (
	"context"
	"time"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/metrics"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/rs/zerolog/log"
)

// MaxCalendarHorizon bounds the occurrences requested per subscription
const MaxCalendarHorizon = 60

// CalendarVisitRecorder is told when the calendar is opened
type CalendarVisitRecorder interface {
	RecordCalendarVisit(ctx context.Context, workspaceID int32) error
}

// CalendarEntry is the projected occurrences of one subscription
type CalendarEntry struct {
	Subscription *domain.Subscription
	Color        string
	Ghost        bool
	Dates        []time.Time
}

// Calendar is the billing calendar of a workspace
type Calendar struct {
	Horizon int
	Entries []CalendarEntry
}

// CalendarService projects billing dates for the calendar view
type CalendarService struct {
	subRepo domain.SubscriptionRepository
	visits  CalendarVisitRecorder
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(subRepo domain.SubscriptionRepository) *CalendarService {
	return &CalendarService{subRepo: subRepo}
}

// SetVisitRecorder sets the hook called when the calendar is fetched
func (s *CalendarService) SetVisitRecorder(r CalendarVisitRecorder) {
	s.visits = r
}

// GetCalendar projects every active subscription, ghosts included, horizon periods ahead
func (s *CalendarService) GetCalendar(ctx context.Context, workspaceID int32, now time.Time, horizon int) (*Calendar, error) {
	if horizon > MaxCalendarHorizon {
		horizon = MaxCalendarHorizon
	}
	subs, err := s.subRepo.ListByWorkspace(ctx, workspaceID, domain.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cal := BuildCalendar(subs, now, horizon)
	metrics.ObserveEngine("calendar", time.Since(start))

	if s.visits != nil {
		if err := s.visits.RecordCalendarVisit(ctx, workspaceID); err != nil {
			log.Warn().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to record calendar visit")
		}
	}
	return cal, nil
}

// GetDay returns the active subscriptions with an occurrence on day. Days are
// compared in day's location.
func (s *CalendarService) GetDay(ctx context.Context, workspaceID int32, day, now time.Time) ([]*domain.Subscription, error) {
	subs, err := s.subRepo.ListByWorkspace(ctx, workspaceID, domain.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}

	return ChargesOn(subs, day, now), nil
}

// BuildCalendar projects every active subscription, ghosts included, horizon periods
// ahead. Subscriptions without occurrences are left out.
func BuildCalendar(subs []*domain.Subscription, now time.Time, horizon int) *Calendar {
	cal := &Calendar{Horizon: horizon, Entries: make([]CalendarEntry, 0, len(subs))}
	for _, sub := range subs {
		dates := billing.ProjectSubscription(sub, horizon, now)
		if len(dates) == 0 {
			continue
		}
		cal.Entries = append(cal.Entries, CalendarEntry{
			Subscription: sub,
			Color:        sub.Category.OrOther().Color(),
			Ghost:        sub.IsGhost,
			Dates:        dates,
		})
	}
	return cal
}

// ChargesOn returns the subscriptions with a projected occurrence on day
func ChargesOn(subs []*domain.Subscription, day, now time.Time) []*domain.Subscription {
	out := make([]*domain.Subscription, 0)
	for _, sub := range subs {
		for _, d := range billing.ProjectSubscription(sub, billing.DefaultHorizon, now) {
			if util.SameDay(d, day, day.Location()) {
				out = append(out, sub)
				break
			}
		}
	}
	return out
}
