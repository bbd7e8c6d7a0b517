package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingPublisher struct {
	events []Event
}

func (r *recordingPublisher) Publish(workspaceID int32, event Event) {
	r.events = append(r.events, event)
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	client := newMockClient("client-1", 1)
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish(1, SubscriptionCreated(map[string]any{"id": "a"}))

	assert.Len(t, client.GetMessages(), 1)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish(1, SubscriptionCreated(nil))
	})
}

func TestFanOut_PublishesToAll(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{}
	var nilPublisher EventPublisher

	fan := NewFanOut(a, nilPublisher, b)
	fan.Publish(3, AchievementUnlocked(nil))

	assert.Len(t, fan, 2)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Equal(t, "achievement.unlocked", b.events[0].Type)
}
