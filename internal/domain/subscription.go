package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cycle is how often a subscription bills
type Cycle string

const (
	CycleMonthly  Cycle = "monthly"
	CycleAnnually Cycle = "annually"
)

// IsValid reports whether c is one of the accepted input cycles
func (c Cycle) IsValid() bool {
	return c == CycleMonthly || c == CycleAnnually
}

// Category groups subscriptions for reporting
type Category string

const (
	CategoryStreaming Category = "Streaming"
	CategoryWork      Category = "Work"
	CategoryWellness  Category = "Wellness"
	CategoryGames     Category = "Games"
	CategoryOther     Category = "Other"
)

// Categories lists the catalogue in display order
var Categories = []Category{
	CategoryStreaming,
	CategoryWork,
	CategoryWellness,
	CategoryGames,
	CategoryOther,
}

// categoryColors holds the chart color of each category
var categoryColors = map[Category]string{
	CategoryStreaming: "#00C49F",
	CategoryWork:      "#0088FE",
	CategoryWellness:  "#FFBB28",
	CategoryGames:     "#FF8042",
	CategoryOther:     "#A9A9A9",
}

// IsValid reports whether c belongs to the catalogue
func (c Category) IsValid() bool {
	_, ok := categoryColors[c]
	return ok
}

// OrOther maps the empty category to Other
func (c Category) OrOther() Category {
	if c == "" {
		return CategoryOther
	}
	return c
}

// Color returns the chart color for the category, falling back to Other's
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryOther]
}

// Subscription is a recurring charge tracked by the user
type Subscription struct {
	ID              uuid.UUID       `json:"id"`
	WorkspaceID     int32           `json:"workspaceId"`
	Name            string          `json:"name"`
	Value           decimal.Decimal `json:"value"`
	Cycle           Cycle           `json:"cycle"`
	BillingDate     time.Time       `json:"billingDate"`
	Category        Category        `json:"category"`
	LogoURL         *string         `json:"logoUrl,omitempty"`
	IsActive        bool            `json:"isActive"`
	IsGhost         bool            `json:"isGhost"`
	SharedWithCount *int32          `json:"sharedWithCount,omitempty"`
	Description     *string         `json:"description,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// IsCommitted reports whether the subscription counts toward real spending
func (s *Subscription) IsCommitted() bool {
	return s.IsActive && !s.IsGhost
}

// SharedCount returns the number of people splitting the charge (at least 1)
func (s *Subscription) SharedCount() int32 {
	if s.SharedWithCount == nil || *s.SharedWithCount <= 0 {
		return 1
	}
	return *s.SharedWithCount
}

// SubscriptionFilter narrows ListByWorkspace results. Nil fields are ignored.
type SubscriptionFilter struct {
	Active *bool
	Ghost  *bool
}

// SubscriptionRepository defines the interface for subscription persistence operations
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) (*Subscription, error)
	GetByID(ctx context.Context, workspaceID int32, id uuid.UUID) (*Subscription, error)
	ListByWorkspace(ctx context.Context, workspaceID int32, filter SubscriptionFilter) ([]*Subscription, error)
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]*Subscription, error)
	Update(ctx context.Context, sub *Subscription) (*Subscription, error)
	// AdvanceBillingDate moves the billing date from one occurrence to the next only while the
	// row is still committed and billed on from. Otherwise it returns ErrSubscriptionChanged.
	AdvanceBillingDate(ctx context.Context, workspaceID int32, id uuid.UUID, from, to time.Time) (*Subscription, error)
	Delete(ctx context.Context, workspaceID int32, id uuid.UUID) error
}
