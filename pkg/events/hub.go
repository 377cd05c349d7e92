package events

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = 54 * time.Second

	// Subscribers only receive; anything larger than a pong is a protocol error.
	maxMessageSize = 512

	// Per-client send buffer. A client that falls this far behind is dropped.
	clientBuffer = 32
)

// Hub fans capture events out to connected WebSocket subscribers. It
// implements Publisher, so the scheduler stays unaware of the transport.
type Hub struct {
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	// Closed when Run exits, so pumps never block on a gone hub.
	done chan struct{}
}

var _ Publisher = (*Hub)(nil)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. Run must be called before clients connect.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. It exits when ctx is cancelled, closing every
// connected client on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	clients := make(map[*client]bool)

	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				close(c.send)
			}
			return

		case c := <-h.register:
			clients[c] = true
			h.logger.Debug("event subscriber connected", zap.Int("subscribers", len(clients)))

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}

		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop it rather than block the hub.
					delete(clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Publish queues a message for broadcast to all subscribers. It never
// blocks; when the hub is saturated the message is dropped, since the
// event stream is observability, not a system of record.
func (h *Hub) Publish(ctx context.Context, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event message")
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("event broadcast queue full, dropping message",
			zap.String("type", string(message.Type)),
		)
	}
	return nil
}

// ServeWS upgrades an HTTP request to a WebSocket subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// readPump discards inbound frames. It exists to process control messages
// and to notice when the peer goes away.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
