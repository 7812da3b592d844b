package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aroi-pos/api/internal/alert"
)

// Event types pushed to subscribers.
const (
	EventSnapshot = "snapshot"
	EventAlert    = "alert"
)

// Event is a WebSocket message pushed to subscribers. A snapshot
// carries the full current result set of its topic, never a diff;
// Count is the live-order count on order topics and feeds the alert
// triggers.
type Event struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic,omitempty"`
	Count   int             `json:"count,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SnapshotSource builds the current snapshot event for a topic.
// Implemented by the service feed.
type SnapshotSource interface {
	Snapshot(ctx context.Context, topic string) (Event, error)
}

// membership is one client's state within a topic room.
type membership struct {
	// trigger is non-nil when the subscriber asked for alert events
	// on this topic.
	trigger *alert.Trigger

	// caughtUp flips once a broadcast reaches the member; a pending
	// initial snapshot is dropped after that so per-subscriber
	// delivery stays in non-decreasing server-timestamp order.
	caughtUp bool
}

// Hub maintains topic rooms and broadcasts snapshot events to them.
type Hub struct {
	rooms map[string]map[*Client]*membership

	// Outbound events to broadcast.
	broadcast chan *Event

	// Guards rooms and every membership inside them.
	mu sync.Mutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:     make(map[string]map[*Client]*membership),
		broadcast: make(chan *Event, 256),
	}
}

// Run starts the hub's broadcast loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for event := range h.broadcast {
		h.deliver(event)
	}
}

// Broadcast queues an event for every current subscriber of its
// topic. Broadcasting to a topic nobody watches is a no-op.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- &event
}

// Subscribe registers a client in a topic room, replacing any prior
// membership for the same topic. Registration is synchronous so the
// caller can follow up with DeliverInitial.
func (h *Hub) Subscribe(c *Client, topic string, alerts bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[topic] == nil {
		h.rooms[topic] = make(map[*Client]*membership)
	}
	m := &membership{}
	if alerts {
		m.trigger = &alert.Trigger{}
	}
	h.rooms[topic][c] = m
}

// Unsubscribe removes a client from a topic room. Safe to call
// multiple times and for topics the client never joined; other
// subscribers are unaffected.
func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, topic)
}

// Detach removes a client from every room and releases its send
// queue. Called once when the connection goes away.
func (h *Hub) Detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, clients := range h.rooms {
		if _, ok := clients[c]; ok {
			h.removeLocked(c, topic)
		}
	}
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// DeliverInitial sends the initial snapshot to one subscriber. The
// snapshot is dropped when a fresher broadcast already reached the
// member; when delivered, it primes the member's alert trigger so the
// first observed count never fires.
func (h *Hub) DeliverInitial(c *Client, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.rooms[event.Topic]
	if clients == nil {
		return
	}
	m, ok := clients[c]
	if !ok {
		return
	}
	if m.caughtUp {
		// A broadcast has already primed the trigger; feeding it the
		// stale count here would advance the remembered count without
		// emitting the alert, swallowing the fire for good.
		return
	}
	if m.trigger != nil {
		m.trigger.Observe(event.Count)
	}

	message, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.sendLocked(c, event.Topic, message)
}

// DecrementAlerts lowers the remembered order count of every alert
// subscriber on a topic. The archive operation calls this before
// publishing the post-archive snapshot so a subsequent single new
// order is not masked by the net-zero change.
func (h *Hub) DecrementAlerts(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range h.rooms[topic] {
		if m.trigger != nil {
			m.trigger.Decrement()
		}
	}
}

// deliver fans one event out to its topic room.
func (h *Hub) deliver(event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.rooms[event.Topic]
	if len(clients) == 0 {
		return
	}

	// Marshal once for the whole room.
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	var alertMessage []byte
	for client, m := range clients {
		fire := false
		if m.trigger != nil {
			fire = m.trigger.Observe(event.Count)
		}
		m.caughtUp = true

		if !h.sendLocked(client, event.Topic, message) {
			continue
		}
		if fire {
			if alertMessage == nil {
				alertMessage, err = json.Marshal(Event{Type: EventAlert, Topic: event.Topic})
				if err != nil {
					continue
				}
			}
			h.sendLocked(client, event.Topic, alertMessage)
		}
	}
}

// sendLocked queues a message to one client, evicting the client from
// every room when its send buffer is full. Reports whether the
// message was queued. Caller holds h.mu.
func (h *Hub) sendLocked(c *Client, topic string, message []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		// Slow consumer: drop the whole connection rather than block
		// or deliver out of order.
		for t, clients := range h.rooms {
			if _, ok := clients[c]; ok {
				h.removeLocked(c, t)
			}
		}
		c.closed = true
		close(c.send)
		return false
	}
}

// removeLocked drops a client from one room and cleans the room up
// when it empties. Caller holds h.mu.
func (h *Hub) removeLocked(c *Client, topic string) {
	clients, ok := h.rooms[topic]
	if !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, topic)
	}
}
