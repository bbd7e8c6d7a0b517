package service

import (
	"context"
	"strings"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// knownLogos maps a lowercase name fragment to a bundled logo path. Checked in order.
var knownLogos = []struct {
	fragment string
	path     string
}{
	{"netflix", "/logos/netflix.svg"},
	{"spotify", "/logos/spotify.svg"},
	{"amazon prime", "/logos/amazonprime.svg"},
	{"disney+", "/logos/disneyplus.svg"},
	{"youtube", "/logos/youtube.svg"},
	{"discord", "/logos/discord.svg"},
	{"playstation", "/logos/playstation.svg"},
	{"paypal", "/logos/paypal.svg"},
	{"picpay", "/logos/picpay.svg"},
	{"uber", "/logos/uber.svg"},
	{"apple", "/logos/apple.svg"},
	{"twitch", "/logos/twitch.svg"},
	{"duolingo", "/logos/duolingo.svg"},
	{"academia", "/logos/academia.svg"},
	{"github", "/logos/github.svg"},
	{"ifood", "/logos/ifood.svg"},
	{"hbo", "/logos/hbo.svg"},
	{"canva", "/logos/canva.svg"},
	{"udemy", "/logos/udemy.svg"},
	{"ufc", "/logos/ufc.svg"},
	{"coursera", "/logos/coursera.svg"},
}

// LookupLogo returns the bundled logo whose fragment appears in name, or nil
func LookupLogo(name string) *string {
	lower := strings.ToLower(name)
	for _, l := range knownLogos {
		if strings.Contains(lower, l.fragment) {
			path := l.path
			return &path
		}
	}
	return nil
}

// LogoService attaches logos to subscriptions
type LogoService struct {
	subRepo        domain.SubscriptionRepository
	images         *ImageService
	eventPublisher websocket.EventPublisher
}

// NewLogoService creates a new LogoService
func NewLogoService(subRepo domain.SubscriptionRepository, images *ImageService) *LogoService {
	return &LogoService{subRepo: subRepo, images: images}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LogoService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LogoService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// UploadEnabled reports whether custom logos can be uploaded
func (s *LogoService) UploadEnabled() bool {
	return s.images.IsEnabled()
}

// Upload stores a custom logo and points the subscription at it. A previously
// uploaded logo is removed.
func (s *LogoService) Upload(ctx context.Context, workspaceID int32, subscriptionID uuid.UUID, data []byte, filename string) (*domain.Subscription, error) {
	if !s.images.IsEnabled() {
		return nil, ErrImageStorageNotConfigured
	}

	sub, err := s.subRepo.GetByID(ctx, workspaceID, subscriptionID)
	if err != nil {
		return nil, err
	}

	logo, err := s.images.ProcessLogo(ctx, workspaceID, subscriptionID, data, filename)
	if err != nil {
		return nil, err
	}

	previous := sub.LogoURL
	sub.LogoURL = &logo.DisplayKey
	updated, err := s.subRepo.Update(ctx, sub)
	if err != nil {
		_ = s.images.DeleteLogo(ctx, logo.DisplayKey)
		return nil, err
	}

	if previous != nil {
		if err := s.images.DeleteLogo(ctx, *previous); err != nil {
			log.Warn().Err(err).Str("key", *previous).Msg("Failed to remove previous logo")
		}
	}

	s.publishEvent(workspaceID, websocket.SubscriptionUpdated(updated))
	return updated, nil
}

// Release removes the stored logo of a deleted subscription
func (s *LogoService) Release(ctx context.Context, sub *domain.Subscription) {
	if sub == nil || sub.LogoURL == nil || !IsStoredLogo(*sub.LogoURL) || !s.images.IsEnabled() {
		return
	}
	if err := s.images.DeleteLogo(ctx, *sub.LogoURL); err != nil {
		log.Warn().Err(err).Str("subscription_id", sub.ID.String()).Msg("Failed to remove logo")
	}
}

// ResolveURL turns a stored logo key into a presigned URL. Bundled paths and
// external URLs are returned unchanged.
func (s *LogoService) ResolveURL(ctx context.Context, logoURL *string) *string {
	if logoURL == nil || !IsStoredLogo(*logoURL) {
		return logoURL
	}
	if !s.images.IsEnabled() {
		return nil
	}
	signed, err := s.images.SignedURL(ctx, *logoURL)
	if err != nil {
		log.Warn().Err(err).Str("key", *logoURL).Msg("Failed to presign logo")
		return nil
	}
	return &signed
}
