package billing

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// localizedCategories maps labels found in older exports to the catalogue
var localizedCategories = map[string]domain.Category{
	"trabalho":  domain.CategoryWork,
	"bem-estar": domain.CategoryWellness,
	"jogos":     domain.CategoryGames,
	"outro":     domain.CategoryOther,
}

// ParseInstant turns a raw JSON date into a time. It accepts timestamp objects
// ({"seconds","nanoseconds"} with or without a leading underscore), epoch milliseconds and
// date strings. Anything else, including null, yields now.
func ParseInstant(raw []byte, now time.Time) time.Time {
	return InstantFromResult(gjson.ParseBytes(raw), now)
}

// InstantFromResult is ParseInstant for an already parsed value
func InstantFromResult(r gjson.Result, now time.Time) time.Time {
	switch r.Type {
	case gjson.Number:
		return time.UnixMilli(r.Int()).In(now.Location())
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		for _, layout := range instantLayouts {
			if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
				return t
			}
		}
	case gjson.JSON:
		if !r.IsObject() {
			return now
		}
		secs := firstOf(r, "seconds", "_seconds")
		if !secs.Exists() {
			return now
		}
		nanos := firstOf(r, "nanoseconds", "_nanoseconds")
		return time.Unix(secs.Int(), nanos.Int()).In(now.Location())
	}
	return now
}

// ParseValue coerces a raw JSON value to a decimal. Non numeric input yields zero.
func ParseValue(raw []byte) decimal.Decimal {
	return ValueFromResult(gjson.ParseBytes(raw))
}

// ValueFromResult is ParseValue for an already parsed value
func ValueFromResult(r gjson.Result) decimal.Decimal {
	var text string
	switch r.Type {
	case gjson.Number:
		text = r.Raw
	case gjson.String:
		text = strings.TrimSpace(r.Str)
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseCategory maps a raw label to the catalogue; unknown labels become Other
func ParseCategory(label string) domain.Category {
	label = strings.TrimSpace(label)
	if c := domain.Category(label); c.IsValid() {
		return c
	}
	if c, ok := localizedCategories[strings.ToLower(label)]; ok {
		return c
	}
	return domain.CategoryOther
}

// ErrNotADocument marks an export element that is not a JSON object
var ErrNotADocument = errors.New("document is not an object")

// Document is one element of an export together with its position in the input array.
// Err is set when the element could not be read as a subscription.
type Document struct {
	Index        int
	Subscription domain.Subscription
	Err          error
}

// ParseDocuments decodes a document export element by element. The input is either an
// array of documents or an object holding them under "subscriptions". Each document is
// normalized field by field, so malformed fields degrade instead of dropping the record.
func ParseDocuments(raw []byte, now time.Time) []Document {
	root := gjson.ParseBytes(raw)
	if root.IsObject() {
		root = root.Get("subscriptions")
	}
	if !root.IsArray() {
		return nil
	}

	var docs []Document
	index := 0
	root.ForEach(func(_, doc gjson.Result) bool {
		d := Document{Index: index}
		if doc.IsObject() {
			d.Subscription = subscriptionFromResult(doc, now)
		} else {
			d.Err = ErrNotADocument
		}
		docs = append(docs, d)
		index++
		return true
	})
	return docs
}

// ParseSubscriptions returns the readable subscriptions of an export, skipping elements
// that are not objects
func ParseSubscriptions(raw []byte, now time.Time) []domain.Subscription {
	var subs []domain.Subscription
	for _, d := range ParseDocuments(raw, now) {
		if d.Err == nil {
			subs = append(subs, d.Subscription)
		}
	}
	return subs
}

func subscriptionFromResult(doc gjson.Result, now time.Time) domain.Subscription {
	sub := domain.Subscription{
		Name:        strings.TrimSpace(doc.Get("name").String()),
		Value:       ValueFromResult(doc.Get("value")),
		Cycle:       domain.Cycle(strings.ToLower(strings.TrimSpace(doc.Get("cycle").String()))),
		BillingDate: InstantFromResult(doc.Get("billingDate"), now),
		Category:    ParseCategory(doc.Get("category").String()),
		IsActive:    true,
		IsGhost:     doc.Get("isGhost").Bool(),
		CreatedAt:   InstantFromResult(doc.Get("createdAt"), now),
	}
	if id, err := uuid.Parse(doc.Get("id").String()); err == nil {
		sub.ID = id
	}
	if active := doc.Get("isActive"); active.Exists() {
		sub.IsActive = active.Bool()
	}
	if logo := doc.Get("logoUrl").String(); logo != "" {
		sub.LogoURL = &logo
	}
	if desc := doc.Get("description").String(); desc != "" {
		sub.Description = &desc
	}
	if shared := doc.Get("sharedWithCount"); shared.Type == gjson.Number {
		if n := shared.Int(); n >= math.MinInt32 && n <= math.MaxInt32 {
			count := int32(n)
			sub.SharedWithCount = &count
		}
	}
	return sub
}

func firstOf(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
