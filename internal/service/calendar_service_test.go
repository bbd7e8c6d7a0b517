package service

import (
	"context"
	"testing"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/testutil"
)

func TestCalendarService_GetCalendar(t *testing.T) {
	repo := testutil.NewMockSubscriptionRepository()
	achievements := testutil.NewMockAchievementRepository()
	svc := NewCalendarService(repo)
	svc.SetVisitRecorder(NewAchievementService(achievements, repo))

	monthly := seedSub(repo, 1, "Netflix", "55.90", domain.CycleMonthly, day(2024, 1, 20))
	ghost := seedSub(repo, 1, "HBO", "34.90", domain.CycleAnnually, day(2024, 3, 1))
	ghost.IsGhost = true
	ghost.Category = domain.CategoryGames
	paused := seedSub(repo, 1, "Gym", "99.00", domain.CycleMonthly, day(2024, 1, 5))
	paused.IsActive = false

	cal, err := svc.GetCalendar(context.Background(), 1, day(2024, 1, 10), 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cal.Entries) != 2 {
		t.Fatalf("expected paused subscription to be skipped, got %d entries", len(cal.Entries))
	}

	first := cal.Entries[0]
	if first.Subscription.ID != monthly.ID || first.Ghost {
		t.Errorf("unexpected first entry %+v", first)
	}
	want := []time.Time{day(2024, 1, 20), day(2024, 2, 20), day(2024, 3, 20), day(2024, 4, 20)}
	if len(first.Dates) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), first.Dates)
	}
	for i := range want {
		if !first.Dates[i].Equal(want[i]) {
			t.Errorf("date %d = %v, want %v", i, first.Dates[i], want[i])
		}
	}
	if first.Color != domain.CategoryStreaming.Color() {
		t.Errorf("expected streaming color, got %s", first.Color)
	}

	second := cal.Entries[1]
	if !second.Ghost || second.Color != domain.CategoryGames.Color() {
		t.Errorf("expected ghost games entry, got %+v", second)
	}

	if ids := achievements.IDs(1); len(ids) != 1 || ids[0] != domain.AchievementVisionary {
		t.Errorf("expected visionary unlocked, got %v", ids)
	}
}

func TestCalendarService_HorizonIsCapped(t *testing.T) {
	repo := testutil.NewMockSubscriptionRepository()
	seedSub(repo, 1, "Netflix", "55.90", domain.CycleMonthly, day(2024, 1, 20))
	svc := NewCalendarService(repo)

	cal, err := svc.GetCalendar(context.Background(), 1, day(2024, 1, 10), 1000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cal.Horizon != MaxCalendarHorizon || len(cal.Entries[0].Dates) != MaxCalendarHorizon+1 {
		t.Errorf("expected horizon capped at %d, got %d with %d dates", MaxCalendarHorizon, cal.Horizon, len(cal.Entries[0].Dates))
	}
}

func TestCalendarService_GetDay(t *testing.T) {
	repo := testutil.NewMockSubscriptionRepository()
	svc := NewCalendarService(repo)
	netflix := seedSub(repo, 1, "Netflix", "55.90", domain.CycleMonthly, day(2024, 1, 20))
	spotify := seedSub(repo, 1, "Spotify", "21.90", domain.CycleMonthly, day(2023, 12, 20))
	seedSub(repo, 1, "Canva", "289.90", domain.CycleAnnually, day(2024, 6, 1))
	now := day(2024, 1, 10)

	subs, err := svc.GetDay(context.Background(), 1, day(2024, 2, 20), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(subs) != 2 || subs[0].ID != netflix.ID || subs[1].ID != spotify.ID {
		t.Errorf("expected netflix and spotify on Feb 20, got %d subscriptions", len(subs))
	}

	subs, _ = svc.GetDay(context.Background(), 1, day(2024, 2, 21), now)
	if len(subs) != 0 {
		t.Errorf("expected no charges on Feb 21, got %d", len(subs))
	}

	// the stale billing date itself is not projected, but its next steps are
	subs, _ = svc.GetDay(context.Background(), 1, day(2023, 12, 20), now)
	if len(subs) != 0 {
		t.Errorf("expected past billing date to be skipped, got %d", len(subs))
	}
}
