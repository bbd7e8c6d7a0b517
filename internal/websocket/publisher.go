package websocket

// EventPublisher delivers events for a workspace
type EventPublisher interface {
	Publish(workspaceID int32, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the workspace
func (h *Hub) Publish(workspaceID int32, event Event) {
	h.Broadcast(workspaceID, event)
}

// NoOpPublisher drops every event
type NoOpPublisher struct{}

func (n *NoOpPublisher) Publish(workspaceID int32, event Event) {}

// FanOut publishes each event to every wrapped publisher in order
type FanOut []EventPublisher

// NewFanOut skips nil publishers
func NewFanOut(publishers ...EventPublisher) FanOut {
	out := make(FanOut, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f FanOut) Publish(workspaceID int32, event Event) {
	for _, p := range f {
		p.Publish(workspaceID, event)
	}
}
