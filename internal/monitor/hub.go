// Package monitor serves the published cycles over HTTP and WebSocket for
// live inspection of what the agent perceives.
package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/demux"
)

const writeWait = 2 * time.Second

type cycleMessage struct {
	Type       string       `json:"type"`
	ServerTime int64        `json:"server_time"`
	Cycle      *demux.Cycle `json:"cycle"`
}

type subscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans published cycles out to WebSocket subscribers. Publish only
// stores the encoded snapshot; Run does the network writes, so a slow
// subscriber never stalls the coordinator. Subscribers see the latest cycle,
// not necessarily every cycle.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	latest      *demux.Cycle
	encoded     []byte
	notify      chan struct{}
}

var _ demux.Sink = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		notify:      make(chan struct{}, 1),
	}
}

// Publish records c as the latest cycle and wakes the broadcaster.
func (h *Hub) Publish(c *demux.Cycle) {
	data, err := json.Marshal(cycleMessage{Type: "cycle", ServerTime: time.Now().UnixMilli(), Cycle: c})
	if err != nil {
		monitoring.Logf("[Monitor] failed to marshal cycle %d: %v", c.Time, err)
		return
	}
	h.mu.Lock()
	h.latest, h.encoded = c, data
	h.mu.Unlock()
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Latest returns the last published cycle, or nil.
func (h *Hub) Latest() *demux.Cycle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Run broadcasts published cycles until ctx is cancelled, then closes every
// subscriber.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.notify:
			h.broadcast()
		}
	}
}

// Subscribe registers conn and sends it the latest cycle. It returns the
// subscriber id, or false if the initial write failed.
func (h *Hub) Subscribe(conn *websocket.Conn) (string, bool) {
	id := uuid.NewString()
	sub := &subscriber{conn: conn}

	h.mu.Lock()
	data := h.encoded
	h.subscribers[id] = sub
	h.mu.Unlock()

	if data != nil {
		if err := sub.write(data); err != nil {
			h.Disconnect(id)
			return "", false
		}
	}
	return id, true
}

// Disconnect removes a subscriber and closes its connection.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) broadcast() {
	h.mu.Lock()
	data := h.encoded
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()
	if data == nil {
		return
	}

	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			monitoring.Verbosef("[Monitor] dropping subscriber %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]*subscriber)
	h.mu.Unlock()
	for _, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		sub.mu.Unlock()
		sub.conn.Close()
	}
}
