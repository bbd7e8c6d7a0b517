package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/cofreforte/cofre-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SubscriptionService handles subscription-related business logic
type SubscriptionService struct {
	repo           domain.SubscriptionRepository
	logos          *LogoService
	achievements   AchievementChecker
	eventPublisher websocket.EventPublisher
	sharePayKey    string
	now            func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(repo domain.SubscriptionRepository, logos *LogoService) *SubscriptionService {
	return &SubscriptionService{repo: repo, logos: logos, now: time.Now}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *SubscriptionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetAchievementChecker sets the checker run after every mutation
func (s *SubscriptionService) SetAchievementChecker(checker AchievementChecker) {
	s.achievements = checker
}

// SetSharePaymentKey sets the payment key printed in share messages
func (s *SubscriptionService) SetSharePaymentKey(key string) {
	s.sharePayKey = key
}

func (s *SubscriptionService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// afterMutation runs the achievement check. Failures never fail the mutation.
func (s *SubscriptionService) afterMutation(ctx context.Context, workspaceID int32) {
	if s.achievements == nil {
		return
	}
	if _, err := s.achievements.Check(ctx, workspaceID); err != nil {
		log.Warn().Err(err).Int32("workspace_id", workspaceID).Msg("Achievement check failed")
	}
}

// SubscriptionInput holds the input for creating or replacing a subscription
type SubscriptionInput struct {
	Name            string
	Value           decimal.Decimal
	Cycle           domain.Cycle
	BillingDate     time.Time
	Category        domain.Category
	LogoURL         *string
	IsActive        *bool
	IsGhost         bool
	SharedWithCount *int32
	Description     *string
}

// validate normalizes the input in place
func (in *SubscriptionInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.ErrNameRequired
	}
	n := utf8.RuneCountInString(in.Name)
	if n < domain.MinSubscriptionNameLength {
		return domain.ErrNameTooShort
	}
	if n > domain.MaxSubscriptionNameLength {
		return domain.ErrNameTooLong
	}
	if !in.Value.IsPositive() {
		return domain.ErrInvalidValue
	}
	if !in.Cycle.IsValid() {
		return domain.ErrInvalidCycle
	}
	in.Category = in.Category.OrOther()
	if !in.Category.IsValid() {
		return domain.ErrInvalidCategory
	}
	if in.SharedWithCount != nil && *in.SharedWithCount < 1 {
		return domain.ErrInvalidSharedCount
	}
	if in.BillingDate.IsZero() {
		return domain.ErrBillingDateRequired
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(desc) > domain.MaxDescriptionLength {
			return fmt.Errorf("%w: description exceeds %d characters", domain.ErrInvalidInput, domain.MaxDescriptionLength)
		}
		if desc == "" {
			in.Description = nil
		} else {
			in.Description = &desc
		}
	}
	if in.LogoURL != nil && strings.TrimSpace(*in.LogoURL) == "" {
		in.LogoURL = nil
	}
	return nil
}

func (in *SubscriptionInput) apply(sub *domain.Subscription) {
	sub.Name = in.Name
	sub.Value = in.Value
	sub.Cycle = in.Cycle
	sub.BillingDate = in.BillingDate
	sub.Category = in.Category
	sub.IsGhost = in.IsGhost
	sub.SharedWithCount = in.SharedWithCount
	sub.Description = in.Description
	if in.IsActive != nil {
		sub.IsActive = *in.IsActive
	}
	if in.LogoURL != nil {
		sub.LogoURL = in.LogoURL
	} else if sub.LogoURL == nil {
		sub.LogoURL = LookupLogo(in.Name)
	}
}

// Create validates and stores a new subscription
func (s *SubscriptionService) Create(ctx context.Context, workspaceID int32, input SubscriptionInput) (*domain.Subscription, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	sub := &domain.Subscription{WorkspaceID: workspaceID, IsActive: true}
	input.apply(sub)

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.SubscriptionCreated(created))
	s.afterMutation(ctx, workspaceID)
	return created, nil
}

// List returns the subscriptions of the workspace ordered by billing date
func (s *SubscriptionService) List(ctx context.Context, workspaceID int32, filter domain.SubscriptionFilter) ([]*domain.Subscription, error) {
	return s.repo.ListByWorkspace(ctx, workspaceID, filter)
}

// Get returns one subscription of the workspace
func (s *SubscriptionService) Get(ctx context.Context, workspaceID int32, id uuid.UUID) (*domain.Subscription, error) {
	return s.repo.GetByID(ctx, workspaceID, id)
}

// Update replaces the editable fields of a subscription
func (s *SubscriptionService) Update(ctx context.Context, workspaceID int32, id uuid.UUID, input SubscriptionInput) (*domain.Subscription, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	sub, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	// a rename picks a new bundled logo unless the caller supplied one
	if input.LogoURL == nil && sub.LogoURL != nil && !IsStoredLogo(*sub.LogoURL) && sub.Name != input.Name {
		sub.LogoURL = nil
	}
	input.apply(sub)

	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.SubscriptionUpdated(updated))
	s.afterMutation(ctx, workspaceID)
	return updated, nil
}

// Delete removes a subscription and its uploaded logo
func (s *SubscriptionService) Delete(ctx context.Context, workspaceID int32, id uuid.UUID) error {
	sub, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, workspaceID, id); err != nil {
		return err
	}
	if s.logos != nil {
		s.logos.Release(ctx, sub)
	}

	s.publishEvent(workspaceID, websocket.SubscriptionDeleted(map[string]any{"id": id}))
	s.afterMutation(ctx, workspaceID)
	return nil
}

// Activate turns a ghost subscription into a real, active one
func (s *SubscriptionService) Activate(ctx context.Context, workspaceID int32, id uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsGhost {
		return nil, domain.ErrNotGhost
	}
	sub.IsGhost = false
	sub.IsActive = true
	s.skipElapsed(sub)

	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.SubscriptionActivated(updated))
	s.afterMutation(ctx, workspaceID)
	return updated, nil
}

// ToggleActive pauses or resumes a subscription
func (s *SubscriptionService) ToggleActive(ctx context.Context, workspaceID int32, id uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	sub.IsActive = !sub.IsActive
	if sub.IsActive {
		s.skipElapsed(sub)
	}

	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.SubscriptionUpdated(updated))
	s.afterMutation(ctx, workspaceID)
	return updated, nil
}

// skipElapsed moves the billing date of a subscription that starts counting again to its
// first occurrence from today on, so renewal only records charges from this point forward
func (s *SubscriptionService) skipElapsed(sub *domain.Subscription) {
	sub.BillingDate = billing.FirstOnOrAfter(sub.BillingDate, sub.Cycle, util.StartOfDay(s.now()))
}

// ShareMessage builds the charge reminder of a shared subscription
func (s *SubscriptionService) ShareMessage(ctx context.Context, workspaceID int32, id uuid.UUID) (string, error) {
	sub, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return "", err
	}
	return BuildShareMessage(sub, s.sharePayKey)
}

// ImportRejection explains why one imported record was skipped
type ImportRejection struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a bulk import
type ImportResult struct {
	Imported []*domain.Subscription `json:"imported"`
	Rejected []ImportRejection      `json:"rejected"`
}

// Import stores already normalized documents. Unreadable documents and records failing
// validation are reported by their position in the export and skipped; the rest are created.
func (s *SubscriptionService) Import(ctx context.Context, workspaceID int32, docs []billing.Document) (*ImportResult, error) {
	result := &ImportResult{
		Imported: make([]*domain.Subscription, 0, len(docs)),
		Rejected: make([]ImportRejection, 0),
	}

	for _, doc := range docs {
		if doc.Err != nil {
			result.Rejected = append(result.Rejected, ImportRejection{Index: doc.Index, Reason: doc.Err.Error()})
			continue
		}
		rec := doc.Subscription
		active := rec.IsActive
		input := SubscriptionInput{
			Name:            rec.Name,
			Value:           rec.Value,
			Cycle:           rec.Cycle,
			BillingDate:     rec.BillingDate,
			Category:        rec.Category,
			LogoURL:         rec.LogoURL,
			IsActive:        &active,
			IsGhost:         rec.IsGhost,
			SharedWithCount: rec.SharedWithCount,
			Description:     rec.Description,
		}
		if input.SharedWithCount != nil && *input.SharedWithCount <= 0 {
			input.SharedWithCount = nil
		}
		if err := input.validate(); err != nil {
			result.Rejected = append(result.Rejected, ImportRejection{Index: doc.Index, Name: rec.Name, Reason: err.Error()})
			continue
		}

		sub := &domain.Subscription{WorkspaceID: workspaceID}
		input.apply(sub)
		created, err := s.repo.Create(ctx, sub)
		if err != nil {
			return result, err
		}
		result.Imported = append(result.Imported, created)
		s.publishEvent(workspaceID, websocket.SubscriptionCreated(created))
	}

	log.Info().Int32("workspace_id", workspaceID).
		Int("imported", len(result.Imported)).
		Int("rejected", len(result.Rejected)).
		Msg("Subscriptions imported")

	if len(result.Imported) > 0 {
		s.afterMutation(ctx, workspaceID)
	}
	return result, nil
}
