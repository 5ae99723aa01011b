package handlers

import (
	"github.com/anjiri1684/appointment_reminder/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type FeedHandler struct {
	hub    *websocket.Hub
	secret []byte
	log    zerolog.Logger
}

func NewFeedHandler(hub *websocket.Hub, secret string, log zerolog.Logger) *FeedHandler {
	return &FeedHandler{hub: hub, secret: []byte(secret), log: log}
}

// Upgrade rejects plain HTTP requests to the feed endpoint.
func (h *FeedHandler) Upgrade(c *fiber.Ctx) error {
	if websocketcontrib.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ServeWs streams pass summaries to an admin client. The first frame must be
// {"type":"auth","token":"<jwt>"}.
func (h *FeedHandler) ServeWs(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		h.log.Warn().Err(err).Msg("WebSocket auth failed: invalid or missing auth message")
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		_ = c.Close()
		return
	}

	claims, err := parseToken(h.secret, authMsg.Token)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket auth failed: invalid token")
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		_ = c.Close()
		return
	}
	if role, _ := claims["role"].(string); role != "admin" {
		_ = c.WriteJSON(fiber.Map{"error": "Forbidden: Admin access required"})
		_ = c.Close()
		return
	}

	client := websocket.NewClient(c)
	h.hub.Register(client)
	h.log.Info().Str("client", client.ID.String()).Msg("WebSocket feed client connected")
	defer func() {
		h.hub.Unregister(client)
		_ = c.Close()
	}()

	// Inbound frames are ignored; the loop only detects disconnects.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure, websocketcontrib.CloseAbnormalClosure) {
				h.log.Debug().Str("client", client.ID.String()).Msg("WebSocket feed closed")
			} else {
				h.log.Warn().Err(err).Str("client", client.ID.String()).Msg("WebSocket read error")
			}
			return
		}
	}
}
