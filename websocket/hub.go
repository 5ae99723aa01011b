package websocket

import (
	"context"

	"github.com/anjiri1684/appointment_reminder/jobs"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	ID   uuid.UUID
	Conn Conn
}

func NewClient(c *websocket.Conn) *Client {
	return &Client{ID: uuid.New(), Conn: c}
}

// Hub fans pass summaries out to connected dashboard clients.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan jobs.PassSummary
	clients    map[uuid.UUID]*Client
	done       chan struct{}
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan jobs.PassSummary, 16),
		clients:    make(map[uuid.UUID]*Client),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "ws-hub").Logger(),
	}
}

// Register adds c to the broadcast set. After Run has returned, c is closed
// instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		_ = c.Conn.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues a summary for broadcast and never blocks the caller; when
// the queue is full the summary is dropped.
func (h *Hub) Publish(s jobs.PassSummary) {
	select {
	case h.broadcast <- s:
	default:
		h.log.Warn().Str("kind", string(s.Kind)).Msg("Broadcast queue full, dropping pass summary")
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for id, c := range h.clients {
				_ = c.Conn.Close()
				delete(h.clients, id)
			}
			return
		case c := <-h.register:
			h.log.Debug().Str("client", c.ID.String()).Msg("Client registered")
			h.clients[c.ID] = c
		case c := <-h.unregister:
			h.log.Debug().Str("client", c.ID.String()).Msg("Client unregistered")
			if cur, ok := h.clients[c.ID]; ok && cur == c {
				delete(h.clients, c.ID)
			}
		case s := <-h.broadcast:
			for id, c := range h.clients {
				if err := c.Conn.WriteJSON(s); err != nil {
					h.log.Warn().Err(err).Str("client", id.String()).Msg("Error sending pass summary to client")
					_ = c.Conn.Close()
					delete(h.clients, id)
				}
			}
		}
	}
}
