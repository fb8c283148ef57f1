package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// AudienceChangeHandler is called when the audience count changes for an
// event room (e.g. for peak tracking).
type AudienceChangeHandler func(eventID uuid.UUID, count int)

// Hub maintains event_id -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// eventID -> map[clientID]*Client
	rooms      map[uuid.UUID]map[string]*Client
	subs       map[uuid.UUID]func() // cancel Redis subscription per event
	mu         sync.RWMutex
	logger     *zap.Logger
	redis      RedisPublisher
	redisSub   RedisSubscriber
	onAudience AudienceChangeHandler
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishEventMessage(eventID uuid.UUID, kind string, payload []byte) error
}

// RedisSubscriber subscribes to event channels and invokes handler for incoming messages.
type RedisSubscriber interface {
	SubscribeEvent(eventID uuid.UUID, handler func(kind string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		rooms:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// SetAudienceChangeHandler sets the callback for audience count changes.
func (h *Hub) SetAudienceChangeHandler(fn AudienceChangeHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAudience = fn
}

// Register adds a client to an event room. Starts the Redis subscription for
// this event when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.EventID] == nil {
		h.rooms[c.EventID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeEvent(c.EventID, func(kind string, payload []byte) {
				h.BroadcastToEvent(c.EventID, kind, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.EventID] = cancel
			}
		}
	}
	h.rooms[c.EventID][c.ID] = c
	count := len(h.rooms[c.EventID])
	onAudience := h.onAudience
	h.mu.Unlock()
	if onAudience != nil {
		onAudience(c.EventID, count)
	}
	h.logger.Debug("client joined event room", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// Unregister removes a client from an event room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	var count int
	if m, ok := h.rooms[c.EventID]; ok {
		delete(m, c.ID)
		count = len(m)
		if count == 0 {
			delete(h.rooms, c.EventID)
			if cancel, ok := h.subs[c.EventID]; ok {
				cancel()
				delete(h.subs, c.EventID)
			}
		}
	}
	onAudience := h.onAudience
	h.mu.Unlock()
	if onAudience != nil && count > 0 {
		onAudience(c.EventID, count)
	}
	h.logger.Debug("client left event room", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// BroadcastToEvent sends a message to all clients in an event room (local only).
func (h *Hub) BroadcastToEvent(eventID uuid.UUID, kind string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Kind: kind, Data: data}

	h.mu.RLock()
	clients := h.rooms[eventID]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastAndPublish sends to local clients and publishes to Redis for other instances.
func (h *Hub) BroadcastAndPublish(eventID uuid.UUID, kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.BroadcastToEvent(eventID, kind, payload)
	if h.redis != nil {
		_ = h.redis.PublishEventMessage(eventID, kind, data)
	}
}

// PublishOnly publishes to Redis only. Used for chat so the Redis subscriber
// callback performs the broadcast once for all instances including this one,
// avoiding duplicate delivery to local clients.
func (h *Hub) PublishOnly(eventID uuid.UUID, kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		_ = h.redis.PublishEventMessage(eventID, kind, data)
		return
	}
	h.BroadcastToEvent(eventID, kind, payload)
}

// AudienceCount returns the number of connected clients in an event room.
func (h *Hub) AudienceCount(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

// SendToClient sends a message to a single client in an event room.
func (h *Hub) SendToClient(eventID uuid.UUID, clientID string, kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Kind: kind, Data: data}
	h.mu.RLock()
	clients := h.rooms[eventID]
	c, ok := clients[clientID]
	h.mu.RUnlock()
	if !ok || c == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
