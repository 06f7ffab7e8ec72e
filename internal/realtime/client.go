package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// session is the hub's view of one connection: an id, the owning user, and
// a buffered outbound channel.
type session struct {
	id     string
	userID int
	send   chan []byte
}

func newSession(userID int) *session {
	return &session{
		id:     uuid.New().String(),
		userID: userID,
		send:   make(chan []byte, 64),
	}
}

// Client couples a websocket connection to a hub session. The channel is
// server-push only: inbound frames are read solely to service pong and
// close handling.
type Client struct {
	s      *session
	hub    *Hub
	conn   *websocket.Conn
	logger *zap.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int, logger *zap.Logger) *Client {
	return &Client{
		s:      newSession(userID),
		hub:    hub,
		conn:   conn,
		logger: logger,
	}
}

// Start registers the client and runs its pumps. ReadPump blocks until the
// connection drops.
func (c *Client) Start() {
	c.hub.register <- c.s
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c.s
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Websocket read error",
					zap.String("session_id", c.s.id),
					zap.Error(err),
				)
			}
			return
		}
		// Inbound payloads are ignored; mutations go through the REST API.
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.s.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("Websocket write error",
					zap.String("session_id", c.s.id),
					zap.Error(err),
				)
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
