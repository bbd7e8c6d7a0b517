package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewEvent(EventTypeCreated, EntityTypeSubscription, map[string]any{"id": "abc"})

	assert.Equal(t, "subscription.created", event.Type)
	assert.Equal(t, EntityTypeSubscription, event.Entity)
	assert.False(t, event.Timestamp.Before(before))
}

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"created", SubscriptionCreated(nil), "subscription.created"},
		{"updated", SubscriptionUpdated(nil), "subscription.updated"},
		{"deleted", SubscriptionDeleted(nil), "subscription.deleted"},
		{"activated", SubscriptionActivated(nil), "subscription.activated"},
		{"renewed", SubscriptionRenewed(nil), "subscription.renewed"},
		{"payment", PaymentRecorded(nil), "payment.recorded"},
		{"achievement", AchievementUnlocked(nil), "achievement.unlocked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Type)
		})
	}
}

func TestEvent_ToJSON(t *testing.T) {
	event := SubscriptionDeleted(map[string]any{"id": "6f1c1d2e"})

	data, err := event.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "subscription.deleted", decoded["type"])
	assert.Equal(t, "subscription", decoded["entity"])
	assert.Equal(t, map[string]any{"id": "6f1c1d2e"}, decoded["payload"])
	assert.Contains(t, decoded, "timestamp")
}
