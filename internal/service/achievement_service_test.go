package service

import (
	"context"
	"testing"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func newAchievementFixture() (*AchievementService, *testutil.MockAchievementRepository, *testutil.MockSubscriptionRepository, *testutil.MockEventPublisher) {
	repo := testutil.NewMockAchievementRepository()
	subs := testutil.NewMockSubscriptionRepository()
	events := testutil.NewMockEventPublisher()
	svc := NewAchievementService(repo, subs)
	svc.SetEventPublisher(events)
	svc.now = func() time.Time { return day(2024, time.May, 1) }
	return svc, repo, subs, events
}

func TestAchievementService_CheckThresholds(t *testing.T) {
	svc, repo, subs, _ := newAchievementFixture()

	unlocked, err := svc.Check(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(unlocked) != 0 {
		t.Errorf("expected nothing for an empty workspace, got %v", unlocked)
	}

	for i := 0; i < 4; i++ {
		seedSub(subs, 1, "Service", "10.00", domain.CycleMonthly, day(2024, 1, 1))
	}
	unlocked, _ = svc.Check(context.Background(), 1)
	if len(unlocked) != 1 || unlocked[0] != domain.AchievementFirstStep {
		t.Errorf("expected first_step, got %v", unlocked)
	}

	// ghosts count toward organizer but not toward spending
	ghost := seedSub(subs, 1, "Planned", "500.00", domain.CycleMonthly, day(2024, 1, 1))
	ghost.IsGhost = true
	unlocked, _ = svc.Check(context.Background(), 1)
	if len(unlocked) != 1 || unlocked[0] != domain.AchievementOrganizer {
		t.Errorf("expected organizer, got %v", unlocked)
	}

	seedSub(subs, 1, "Gym", "170.01", domain.CycleMonthly, day(2024, 1, 1))
	unlocked, _ = svc.Check(context.Background(), 1)
	if len(unlocked) != 1 || unlocked[0] != domain.AchievementBigSpender {
		t.Errorf("expected big_spender, got %v", unlocked)
	}

	if got := len(repo.IDs(1)); got != 3 {
		t.Errorf("expected 3 unlocks stored, got %d", got)
	}
}

func TestAchievementService_BigSpenderIsStrictlyAbove(t *testing.T) {
	svc, _, subs, _ := newAchievementFixture()
	seedSub(subs, 1, "Exactly", "200.00", domain.CycleMonthly, day(2024, 1, 1))

	unlocked, _ := svc.Check(context.Background(), 1)
	for _, id := range unlocked {
		if id == domain.AchievementBigSpender {
			t.Error("big_spender must require more than 200")
		}
	}
}

func TestAchievementService_UnlockIsIdempotentAndPublishes(t *testing.T) {
	svc, _, _, events := newAchievementFixture()

	isNew, err := svc.Unlock(context.Background(), 1, domain.AchievementVisionary)
	if err != nil || !isNew {
		t.Fatalf("expected new unlock, got %v, %v", isNew, err)
	}
	isNew, _ = svc.Unlock(context.Background(), 1, domain.AchievementVisionary)
	if isNew {
		t.Error("expected second unlock to be a no-op")
	}
	if len(events.Events) != 1 || events.Events[0].Event.Type != "achievement.unlocked" {
		t.Errorf("expected exactly one achievement.unlocked event, got %v", events.Types())
	}

	if _, err := svc.Unlock(context.Background(), 1, "time_traveller"); err != domain.ErrUnknownAchievement {
		t.Errorf("expected ErrUnknownAchievement, got %v", err)
	}
}

func TestAchievementService_RecordSimulation(t *testing.T) {
	svc, repo, _, _ := newAchievementFixture()

	unlocked, _ := svc.RecordSimulation(context.Background(), 1, decimal.NewFromInt(50))
	if len(unlocked) != 1 || unlocked[0] != domain.AchievementSimulator {
		t.Errorf("expected only simulator at exactly 50, got %v", unlocked)
	}

	unlocked, _ = svc.RecordSimulation(context.Background(), 1, decimal.RequireFromString("50.01"))
	if len(unlocked) != 1 || unlocked[0] != domain.AchievementMasterEconomist {
		t.Errorf("expected master_economist, got %v", unlocked)
	}
	if len(repo.IDs(1)) != 2 {
		t.Errorf("expected 2 unlocks, got %v", repo.IDs(1))
	}
}

func TestAchievementService_List(t *testing.T) {
	svc, _, _, _ := newAchievementFixture()
	_ = svc.RecordCalendarVisit(context.Background(), 1)

	list, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != len(domain.AchievementCatalogue) {
		t.Fatalf("expected full catalogue, got %d entries", len(list))
	}
	for i, status := range list {
		if status.ID != domain.AchievementCatalogue[i].ID {
			t.Errorf("entry %d out of catalogue order: %s", i, status.ID)
		}
		wantUnlocked := status.ID == domain.AchievementVisionary
		if status.Unlocked != wantUnlocked {
			t.Errorf("%s: unlocked=%v, want %v", status.ID, status.Unlocked, wantUnlocked)
		}
		if wantUnlocked && (status.UnlockedAt == nil || !status.UnlockedAt.Equal(day(2024, time.May, 1))) {
			t.Errorf("%s: unexpected unlock time %v", status.ID, status.UnlockedAt)
		}
	}
}
