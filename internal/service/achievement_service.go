package service

import (
	"context"
	"time"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/metrics"
	"github.com/cofreforte/cofre-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Achievement thresholds
const (
	OrganizerMinSubscriptions = 5
)

var (
	BigSpenderMonthlyThreshold      = decimal.NewFromInt(200)
	MasterEconomistSavingsThreshold = decimal.NewFromInt(50)
)

// AchievementStatus is one catalogue entry with its unlock state for a workspace
type AchievementStatus struct {
	domain.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// AchievementChecker re-evaluates the subscription based achievements of a workspace
type AchievementChecker interface {
	Check(ctx context.Context, workspaceID int32) ([]domain.AchievementID, error)
}

// AchievementService grants badges
type AchievementService struct {
	repo           domain.AchievementRepository
	subRepo        domain.SubscriptionRepository
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewAchievementService creates a new AchievementService
func NewAchievementService(repo domain.AchievementRepository, subRepo domain.SubscriptionRepository) *AchievementService {
	return &AchievementService{repo: repo, subRepo: subRepo, now: time.Now}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *AchievementService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AchievementService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// Check unlocks first_step, organizer and big_spender when the workspace qualifies.
// It returns the newly unlocked ids.
func (s *AchievementService) Check(ctx context.Context, workspaceID int32) ([]domain.AchievementID, error) {
	subs, err := s.subRepo.ListByWorkspace(ctx, workspaceID, domain.SubscriptionFilter{})
	if err != nil {
		return nil, err
	}

	var qualified []domain.AchievementID
	if len(subs) > 0 {
		qualified = append(qualified, domain.AchievementFirstStep)
	}
	if len(subs) >= OrganizerMinSubscriptions {
		qualified = append(qualified, domain.AchievementOrganizer)
	}
	if billing.TotalMonthly(billing.Committed(subs, nil)).GreaterThan(BigSpenderMonthlyThreshold) {
		qualified = append(qualified, domain.AchievementBigSpender)
	}

	return s.unlockAll(ctx, workspaceID, qualified)
}

// RecordCalendarVisit unlocks visionary
func (s *AchievementService) RecordCalendarVisit(ctx context.Context, workspaceID int32) error {
	_, err := s.Unlock(ctx, workspaceID, domain.AchievementVisionary)
	return err
}

// RecordSimulation unlocks simulator, and master_economist when the simulated
// monthly savings exceed the threshold.
func (s *AchievementService) RecordSimulation(ctx context.Context, workspaceID int32, savings decimal.Decimal) ([]domain.AchievementID, error) {
	ids := []domain.AchievementID{domain.AchievementSimulator}
	if savings.GreaterThan(MasterEconomistSavingsThreshold) {
		ids = append(ids, domain.AchievementMasterEconomist)
	}
	return s.unlockAll(ctx, workspaceID, ids)
}

func (s *AchievementService) unlockAll(ctx context.Context, workspaceID int32, ids []domain.AchievementID) ([]domain.AchievementID, error) {
	unlocked := make([]domain.AchievementID, 0, len(ids))
	for _, id := range ids {
		isNew, err := s.Unlock(ctx, workspaceID, id)
		if err != nil {
			return unlocked, err
		}
		if isNew {
			unlocked = append(unlocked, id)
		}
	}
	return unlocked, nil
}

// Unlock grants one achievement. It reports whether the achievement was new.
func (s *AchievementService) Unlock(ctx context.Context, workspaceID int32, id domain.AchievementID) (bool, error) {
	achievement, ok := domain.LookupAchievement(id)
	if !ok {
		return false, domain.ErrUnknownAchievement
	}

	at := s.now().UTC()
	isNew, err := s.repo.Unlock(ctx, workspaceID, id, at)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("achievement", string(id)).Msg("Failed to unlock achievement")
		return false, err
	}
	if !isNew {
		return false, nil
	}

	metrics.RecordAchievementUnlocked(string(id))
	log.Info().Int32("workspace_id", workspaceID).Str("achievement", string(id)).Msg("Achievement unlocked")
	s.publishEvent(workspaceID, websocket.AchievementUnlocked(AchievementStatus{
		Achievement: achievement,
		Unlocked:    true,
		UnlockedAt:  &at,
	}))
	return true, nil
}

// List returns the whole catalogue in display order with unlock state
func (s *AchievementService) List(ctx context.Context, workspaceID int32) ([]AchievementStatus, error) {
	unlocks, err := s.repo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	unlockedAt := make(map[domain.AchievementID]time.Time, len(unlocks))
	for _, u := range unlocks {
		unlockedAt[u.AchievementID] = u.UnlockedAt
	}

	result := make([]AchievementStatus, 0, len(domain.AchievementCatalogue))
	for _, a := range domain.AchievementCatalogue {
		status := AchievementStatus{Achievement: a}
		if at, ok := unlockedAt[a.ID]; ok {
			at := at
			status.Unlocked = true
			status.UnlockedAt = &at
		}
		result = append(result, status)
	}
	return result, nil
}
