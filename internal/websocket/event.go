package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the action part of an event name
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeUpdated   EventType = "updated"
	EventTypeDeleted   EventType = "deleted"
	EventTypeActivated EventType = "activated"
	EventTypeRenewed   EventType = "renewed"
	EventTypeRecorded  EventType = "recorded"
	EventTypeUnlocked  EventType = "unlocked"
)

// EntityType is the entity part of an event name
type EntityType string

const (
	EntityTypeSubscription EntityType = "subscription"
	EntityTypePayment      EntityType = "payment"
	EntityTypeAchievement  EntityType = "achievement"
)

// Event is the message pushed to clients: { type, entity, payload, timestamp }.
// Clients refetch derived views when they receive one.
type Event struct {
	Type      string     `json:"type"` // e.g. "subscription.created"
	Entity    EntityType `json:"entity"`
	Payload   any        `json:"payload"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload any) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func SubscriptionCreated(payload any) Event {
	return NewEvent(EventTypeCreated, EntityTypeSubscription, payload)
}

func SubscriptionUpdated(payload any) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSubscription, payload)
}

func SubscriptionDeleted(payload any) Event {
	return NewEvent(EventTypeDeleted, EntityTypeSubscription, payload)
}

// SubscriptionActivated is sent when a ghost subscription becomes committed
func SubscriptionActivated(payload any) Event {
	return NewEvent(EventTypeActivated, EntityTypeSubscription, payload)
}

// SubscriptionRenewed is sent when the renewal job advances a billing date
func SubscriptionRenewed(payload any) Event {
	return NewEvent(EventTypeRenewed, EntityTypeSubscription, payload)
}

func PaymentRecorded(payload any) Event {
	return NewEvent(EventTypeRecorded, EntityTypePayment, payload)
}

func AchievementUnlocked(payload any) Event {
	return NewEvent(EventTypeUnlocked, EntityTypeAchievement, payload)
}
