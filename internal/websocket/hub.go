package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when sending to a closed or saturated client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	WorkspaceID() int32
	// Send must not block; a full buffer is reported as ErrClientClosed
	Send(data []byte) error
	Close() error
}

// Gauge receives the number of connected clients
type Gauge interface {
	Set(float64)
}

// Hub fans events out to the clients of a workspace.
// It is safe for concurrent use.
type Hub struct {
	mu         sync.RWMutex
	workspaces map[int32]map[string]ClientInterface
	total      int
	gauge      Gauge
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		workspaces: make(map[int32]map[string]ClientInterface),
	}
}

// SetGauge reports connection counts to g from now on
func (h *Hub) SetGauge(g Gauge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gauge = g
	g.Set(float64(h.total))
}

// Register adds a client to the hub under its workspace
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := client.WorkspaceID()
	clients := h.workspaces[workspaceID]
	if clients == nil {
		clients = make(map[string]ClientInterface)
		h.workspaces[workspaceID] = clients
	}
	if _, exists := clients[client.ID()]; !exists {
		h.total++
	}
	clients[client.ID()] = client
	h.reportLocked()

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", client.ID()).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub; unknown clients are ignored
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client ClientInterface) bool {
	workspaceID := client.WorkspaceID()
	clients, ok := h.workspaces[workspaceID]
	if !ok {
		return false
	}
	if _, exists := clients[client.ID()]; !exists {
		return false
	}

	delete(clients, client.ID())
	if len(clients) == 0 {
		delete(h.workspaces, workspaceID)
	}
	h.total--
	h.reportLocked()

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", client.ID()).
		Msg("WebSocket client unregistered")
	return true
}

func (h *Hub) reportLocked() {
	if h.gauge != nil {
		h.gauge.Set(float64(h.total))
	}
}

// Broadcast sends an event to every client of a workspace. Clients that cannot keep up are
// dropped and closed.
func (h *Hub) Broadcast(workspaceID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	var stale []ClientInterface
	for _, c := range h.snapshot(workspaceID) {
		if err := c.Send(data); err != nil {
			stale = append(stale, c)
		}
	}

	for _, c := range stale {
		log.Warn().
			Int32("workspace_id", workspaceID).
			Str("client_id", c.ID()).
			Msg("Dropping slow WebSocket client")
		h.Unregister(c)
		_ = c.Close()
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("event_type", event.Type).
		Int("dropped", len(stale)).
		Msg("Broadcast event")
}

func (h *Hub) snapshot(workspaceID int32) []ClientInterface {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.workspaces[workspaceID]
	out := make([]ClientInterface, 0, len(clients))
	for _, c := range clients {
		out = append(out, c)
	}
	return out
}

// Shutdown closes every connected client
func (h *Hub) Shutdown() {
	h.mu.Lock()
	var all []ClientInterface
	for _, clients := range h.workspaces {
		for _, c := range clients {
			all = append(all, c)
		}
	}
	h.workspaces = make(map[int32]map[string]ClientInterface)
	h.total = 0
	h.reportLocked()
	h.mu.Unlock()

	for _, c := range all {
		_ = c.Close()
	}
}

// ClientCount returns the number of clients connected to a workspace
func (h *Hub) ClientCount(workspaceID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.workspaces[workspaceID])
}

// TotalClientCount returns the number of connected clients across all workspaces
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}
