package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client is one websocket connection at the server.
type Client struct {
	conn     *websocket.Conn
	registry *Registry
	session  *Session
	send     chan []byte

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, registry *Registry, session *Session) *Client {
	return &Client{
		conn:     conn,
		registry: registry,
		session:  session,
		send:     make(chan []byte, sendBufferSize),
	}
}

func (c *Client) ProfileID() uuid.UUID {
	return c.session.Profile.ID
}

func (c *Client) Username() string {
	return c.session.Profile.Username
}

// Session returns this connection's session state.
func (c *Client) Session() *Session {
	return c.session
}

// Send pushes an event to this connection only.
func (c *Client) Send(event string, payload any) {
	c.registry.sendDirect(c, event, payload)
}

// enqueue offers a frame to the write pump without blocking. Reports
// whether the frame was accepted. Only call while the client is held
// in its room (see roomSet).
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer c.disconnect()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.registry.log.Error(err, "unexpected websocket close", "profile", c.ProfileID())
			}
			return
		}
		c.handleFrame(raw)
	}
}

func (c *Client) handleFrame(raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.registry.log.Error(err, "malformed frame", "profile", c.ProfileID())
		return
	}
	ctx := context.Background()

	// The heartbeat renews the presence key; everything else is routed.
	if frame.Event == EventPing {
		if err := c.registry.presence.Renew(ctx, c.ProfileID()); err != nil {
			c.registry.log.Error(err, "presence renewal failed", "profile", c.ProfileID())
		}
		return
	}
	if handler, ok := c.registry.handlers[frame.Event]; ok {
		handler(ctx, c, frame.Payload)
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
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The registry closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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

// disconnect leaves the room and closes the socket. No presence cleanup
// happens here: if this was the user's last connection the presence key
// simply expires.
func (c *Client) disconnect() {
	c.closeOnce.Do(func() {
		c.registry.remove(c)
		c.conn.Close()
	})
}
