package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/global-academic-forum/backend/internal/entitlements"
	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EventDirectory looks up events for socket admission. (nil, nil) means the
// event does not exist.
type EventDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// EntitlementResolver resolves the caller's entitlement for the join-time
// access decision.
type EntitlementResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID, institutionID *uuid.UUID) (entitlements.Entitlement, error)
}

// Client represents a single WebSocket connection in an event room.
type Client struct {
	ID       string
	EventID  uuid.UUID
	UserID   uuid.UUID
	Role     string
	JoinedAt time.Time
	hub      *Hub
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop. Callers
// authenticate with their bearer token as a query param since browsers
// cannot set headers on WebSocket dials. Joining a room requires the same
// access decision as viewing the event over HTTP, so a restricted room
// rejects non-members before the upgrade.
func ServeWs(hub *Hub, events EventDirectory, resolver EntitlementResolver, logger *zap.Logger, validate middleware.ValidateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventIDStr := c.Query("event_id")
		token := c.Query("token")
		if eventIDStr == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_id and token required"})
			return
		}
		eventID, err := uuid.Parse(eventIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
			return
		}
		identity, err := validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		event, err := events.GetByID(c.Request.Context(), eventID)
		if err != nil {
			logger.Error("event lookup for socket join failed", zap.Error(err), zap.String("event_id", eventID.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "event lookup failed"})
			return
		}
		if event == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		viewer := &entitlements.Viewer{
			UserID:        identity.UserID,
			Role:          models.Role(identity.Role),
			InstitutionID: identity.InstitutionID,
		}
		var ent entitlements.Entitlement
		if resolver != nil {
			ent, err = resolver.Resolve(c.Request.Context(), identity.UserID, identity.InstitutionID)
			if err != nil {
				logger.Warn("entitlement resolution for socket join failed", zap.Error(err), zap.String("user_id", identity.UserID.String()))
				ent = entitlements.Entitlement{}
			}
		}
		if !entitlements.CanView(event, viewer, ent) {
			c.JSON(http.StatusForbidden, gin.H{"error": "event access denied"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			EventID:  eventID,
			UserID:   identity.UserID,
			Role:     identity.Role,
			JoinedAt: time.Now(),
			hub:      hub,
			conn:     conn,
			send:     make(chan WSMessage, 256),
			logger:   logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Kind {
		case "join":
			c.hub.BroadcastAndPublish(c.EventID, "audience_count", map[string]int{
				"count": c.hub.AudienceCount(c.EventID),
			})
			c.hub.BroadcastAndPublish(c.EventID, "join", map[string]string{
				"user_id": c.UserID.String(),
				"role":    c.Role,
			})
		case "chat_message", "question":
			// Publish only so the Redis subscriber broadcasts once for all
			// instances, avoiding duplicate delivery to local clients.
			c.hub.PublishOnly(c.EventID, msg.Kind, json.RawMessage(msg.Data))
		case "pin_message", "remove_message":
			if entitlements.Can(models.Role(c.Role), entitlements.CapModerateLiveRoom) {
				c.hub.BroadcastAndPublish(c.EventID, msg.Kind, json.RawMessage(msg.Data))
			}
		default:
			// ignore
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
