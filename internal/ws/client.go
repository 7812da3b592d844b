package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Budget for building an initial snapshot
	snapshotTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers connect from tableside devices on any origin
	},
}

// Client represents a single WebSocket connection. A client may watch
// any number of topics and switch them in-band, e.g. the admin view
// re-subscribing to a different history date.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	src  SnapshotSource
	send chan []byte

	// closed marks the send channel as released; guarded by hub.mu.
	closed bool
}

// controlMessage is the only inbound frame viewers send: topic
// subscription changes.
type controlMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Topic  string `json:"topic"`
	Alerts bool   `json:"alerts"`
}

// subscribe joins a topic room and queues the topic's initial
// snapshot. Registration happens before the snapshot fetch so a
// concurrent change is either broadcast to us or folded into the
// snapshot we read.
func (c *Client) subscribe(topic string, alerts bool) {
	c.hub.Subscribe(c, topic, alerts)

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	event, err := c.src.Snapshot(ctx, topic)
	if err != nil {
		log.Printf("ws: snapshot %q: %v", topic, err)
		c.hub.Unsubscribe(c, topic)
		return
	}
	c.hub.DeliverInitial(c, event)
}

// ReadPump pumps control messages from the WebSocket connection to
// the hub and detaches the client when the connection drops.
// The application runs ReadPump in a per-connection goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: read: %v", err)
			}
			break
		}

		var ctrl controlMessage
		if err := json.Unmarshal(message, &ctrl); err != nil || ctrl.Topic == "" {
			continue
		}
		switch ctrl.Action {
		case "subscribe":
			c.subscribe(ctrl.Topic, ctrl.Alerts)
		case "unsubscribe":
			c.hub.Unsubscribe(c, ctrl.Topic)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection.
// The application runs WritePump in a per-connection goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub released the client
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS handles WebSocket requests from viewers.
// Endpoint: WS /ws?topics=orders,summaries&alerts=orders
// topics is the initial subscription set; alerts names the subset of
// those topics that should also emit alert events.
func ServeWS(hub *Hub, src SnapshotSource, w http.ResponseWriter, r *http.Request) {
	topics := splitParam(r.URL.Query().Get("topics"))
	alerts := make(map[string]bool)
	for _, t := range splitParam(r.URL.Query().Get("alerts")) {
		alerts[t] = true
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}

	client := &Client{
		hub:  hub,
		conn: conn,
		src:  src,
		send: make(chan []byte, 256),
	}

	// Initial snapshots land in the buffered send queue before the
	// write pump starts draining it.
	for _, topic := range topics {
		client.subscribe(topic, alerts[topic])
	}

	go client.WritePump()
	go client.ReadPump()
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
