package service

import (
	"context"
	"errors"
	"time"

	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/cofreforte/cofre-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// MaxRenewalCatchUp bounds how many elapsed occurrences one run records per subscription
const MaxRenewalCatchUp = 240

// RenewalResult summarizes one renewal run
type RenewalResult struct {
	Renewed  int
	Payments int
	Skipped  int
	Failed   int
}

// RenewalService records elapsed charges and moves billing dates forward
type RenewalService struct {
	subRepo        domain.SubscriptionRepository
	paymentRepo    domain.PaymentRepository
	eventPublisher websocket.EventPublisher
}

// NewRenewalService creates a new RenewalService
func NewRenewalService(subRepo domain.SubscriptionRepository, paymentRepo domain.PaymentRepository) *RenewalService {
	return &RenewalService{subRepo: subRepo, paymentRepo: paymentRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *RenewalService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *RenewalService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// RenewDue renews every committed subscription whose billing date is before the
// start of now's day. A failing subscription is logged and skipped; running
// again is safe because payments are unique per occurrence.
func (s *RenewalService) RenewDue(ctx context.Context, now time.Time) (*RenewalResult, error) {
	cutoff := util.StartOfDay(now)
	due, err := s.subRepo.ListDueBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &RenewalResult{}
	for _, sub := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		recorded, err := s.renew(ctx, sub, cutoff)
		result.Payments += recorded
		if errors.Is(err, domain.ErrSubscriptionChanged) {
			log.Debug().
				Int32("workspace_id", sub.WorkspaceID).
				Str("subscription_id", sub.ID.String()).
				Msg("Subscription changed during renewal, skipped")
			result.Skipped++
			continue
		}
		if err != nil {
			log.Error().Err(err).
				Int32("workspace_id", sub.WorkspaceID).
				Str("subscription_id", sub.ID.String()).
				Msg("Failed to renew subscription")
			result.Failed++
			continue
		}
		result.Renewed++
	}
	return result, nil
}

// renew records one payment per occurrence before cutoff and moves the billing date to
// the first occurrence on or after it. The move only applies while the stored row is
// still the committed one that was listed.
func (s *RenewalService) renew(ctx context.Context, sub *domain.Subscription, cutoff time.Time) (int, error) {
	share := billing.UserShare(sub)
	recorded := 0
	next := sub.BillingDate
	for i := 0; i < MaxRenewalCatchUp && next.Before(cutoff); i++ {
		payment := &domain.PaymentRecord{
			WorkspaceID:      sub.WorkspaceID,
			SubscriptionID:   sub.ID,
			SubscriptionName: sub.Name,
			Amount:           share,
			Category:         sub.Category.OrOther(),
			PaidAt:           next,
		}
		inserted, err := s.paymentRepo.Record(ctx, payment)
		if err != nil {
			return recorded, err
		}
		if inserted {
			recorded++
			s.publishEvent(sub.WorkspaceID, websocket.PaymentRecorded(payment))
		}
		next = billing.NextOccurrence(next, sub.Cycle)
	}

	updated, err := s.subRepo.AdvanceBillingDate(ctx, sub.WorkspaceID, sub.ID, sub.BillingDate, next)
	if err != nil {
		return recorded, err
	}
	s.publishEvent(sub.WorkspaceID, websocket.SubscriptionRenewed(updated))
	return recorded, nil
}
