package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cofreforte/cofre-backend/internal/billing"
	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoSubscriptions is returned when a file decodes but holds no subscriptions
var ErrNoSubscriptions = errors.New("no subscriptions found")

// File is the TOML layout read by the CLI:
//
//	[[subscriptions]]
//	name = "Netflix"
//	value = 39.90
//	cycle = "monthly"
//	billing_date = 2024-01-15
//	category = "Streaming"
//	shared_with = 2
type File struct {
	Subscriptions []Entry `toml:"subscriptions"`
}

// Entry is one subscription in a TOML file. Value accepts a number or a string and
// billing_date a TOML date or a YYYY-MM-DD string.
type Entry struct {
	Name        string `toml:"name"`
	Value       any    `toml:"value"`
	Cycle       string `toml:"cycle"`
	BillingDate any    `toml:"billing_date"`
	Category    string `toml:"category"`
	Active      *bool  `toml:"active"`
	Ghost       bool   `toml:"ghost"`
	SharedWith  int32  `toml:"shared_with"`
	Description string `toml:"description"`
}

// LoadFile reads subscriptions from path. Files ending in .json are treated as a document
// export, everything else as TOML.
func LoadFile(path string, now time.Time) ([]*domain.Subscription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var subs []*domain.Subscription
	if strings.EqualFold(filepath.Ext(path), ".json") {
		subs, err = LoadJSON(data, now)
	} else {
		subs, err = LoadTOML(data, now)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return subs, nil
}

// LoadJSON decodes a document export with the same normalization the import endpoint uses.
// Cycles follow the TOML rules: empty means monthly, anything else unknown is an error.
func LoadJSON(data []byte, now time.Time) ([]*domain.Subscription, error) {
	parsed := billing.ParseSubscriptions(data, now)
	if len(parsed) == 0 {
		return nil, ErrNoSubscriptions
	}
	subs := make([]*domain.Subscription, len(parsed))
	for i := range parsed {
		sub := parsed[i]
		if sub.Cycle == "" {
			sub.Cycle = domain.CycleMonthly
		}
		if !sub.Cycle.IsValid() {
			return nil, fmt.Errorf("subscription %d: %s: %w, got %q", i, sub.Name, domain.ErrInvalidCycle, sub.Cycle)
		}
		if sub.ID == uuid.Nil {
			sub.ID = uuid.New()
		}
		subs[i] = &sub
	}
	return subs, nil
}

// LoadTOML decodes and validates a TOML subscription file. Dates are read as calendar days
// in now's location.
func LoadTOML(data []byte, now time.Time) ([]*domain.Subscription, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing toml: %w", err)
	}
	if len(f.Subscriptions) == 0 {
		return nil, ErrNoSubscriptions
	}

	subs := make([]*domain.Subscription, 0, len(f.Subscriptions))
	for i, e := range f.Subscriptions {
		sub, err := e.toSubscription(now)
		if err != nil {
			return nil, fmt.Errorf("subscription %d: %w", i+1, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (e Entry) toSubscription(now time.Time) (*domain.Subscription, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}

	value, err := entryValue(e.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	cycle := domain.Cycle(strings.ToLower(strings.TrimSpace(e.Cycle)))
	if cycle == "" {
		cycle = domain.CycleMonthly
	}
	if !cycle.IsValid() {
		return nil, fmt.Errorf("%s: %w, got %q", name, domain.ErrInvalidCycle, e.Cycle)
	}

	billingDate, err := entryDate(e.BillingDate, now.Location())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	sub := &domain.Subscription{
		ID:          uuid.New(),
		Name:        name,
		Value:       value,
		Cycle:       cycle,
		BillingDate: billingDate,
		Category:    billing.ParseCategory(e.Category),
		IsActive:    e.Active == nil || *e.Active,
		IsGhost:     e.Ghost,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if e.SharedWith > 1 {
		shared := e.SharedWith
		sub.SharedWithCount = &shared
	}
	if desc := strings.TrimSpace(e.Description); desc != "" {
		sub.Description = &desc
	}
	return sub, nil
}

func entryValue(raw any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch v := raw.(type) {
	case int64:
		d = decimal.NewFromInt(v)
	case float64:
		d = decimal.NewFromFloat(v)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("value %q is not a number", v)
		}
		d = parsed
	case nil:
		return decimal.Zero, fmt.Errorf("value is required")
	default:
		return decimal.Zero, fmt.Errorf("value has unsupported type %T", raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, domain.ErrInvalidValue
	}
	return d, nil
}

func entryDate(raw any, loc *time.Location) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		// local dates decode without a meaningful zone
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, loc), nil
	case string:
		d, err := util.ParseDay(strings.TrimSpace(v), loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("billing_date %q must be YYYY-MM-DD", v)
		}
		return d, nil
	case nil:
		return time.Time{}, domain.ErrBillingDateRequired
	default:
		return time.Time{}, fmt.Errorf("billing_date has unsupported type %T", raw)
	}
}
