package registry

import (
	"encoding/json"
	"sync"
	"time"

	"workerlly/models"
	"workerlly/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBufferSize = 256

	// Application-level keepalive. The JSON ping interval grows by 10%
	// after every delivered ping, capped at the ceiling.
	keepaliveBase    = 30 * time.Second
	keepaliveCeiling = 60 * time.Second
	keepaliveGrowth  = 1.1
)

// MessageHandler dispatches one inbound client frame.
type MessageHandler func(c *Client, msg models.SocketMessage)

// Client is one user's WebSocket connection and its outbound queue.
type Client struct {
	UserID      string
	CategoryIDs []string
	CityIDs     []string
	Roles       []string

	Send chan []byte

	registry  *Registry
	conn      *websocket.Conn
	onMessage MessageHandler
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection. Call Run to start the pumps.
func NewClient(r *Registry, conn *websocket.Conn, userID string, categoryIDs, cityIDs, roles []string, onMessage MessageHandler) *Client {
	return &Client{
		UserID:      userID,
		CategoryIDs: categoryIDs,
		CityIDs:     cityIDs,
		Roles:       roles,
		Send:        make(chan []byte, sendBufferSize),
		registry:    r,
		conn:        conn,
		onMessage:   onMessage,
		done:        make(chan struct{}),
	}
}

// Run starts the write pump and keepalive, then reads until the
// connection drops. Blocks; call from the connection's handler goroutine.
func (c *Client) Run() {
	go c.writePump()
	go c.keepalive()
	c.readPump()
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump consumes inbound frames and refreshes the read deadline on
// every pong. Exits on the first read error, unregistering the client.
func (c *Client) readPump() {
	defer c.registry.Disconnect(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.GetLogger().Debug("websocket read error",
					zap.String("user_id", c.UserID), zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg models.SocketMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.SendMessage(models.SocketMessage{Type: "error", Data: "invalid message format"})
			continue
		}
		if msg.Type == "pong" {
			continue
		}
		if c.onMessage != nil {
			c.onMessage(c, msg)
		}
	}
}

// writePump owns all writes to the connection: queued frames plus the
// protocol-level ping tick.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// keepalive queues the application-level JSON ping on a widening
// interval. Clients answer with a "pong" frame the read pump swallows.
func (c *Client) keepalive() {
	interval := keepaliveBase
	timer := time.NewTimer(interval)
	defer timer.Stop()

	ping, _ := json.Marshal(models.SocketMessage{Type: "ping"})
	for {
		select {
		case <-timer.C:
			select {
			case c.Send <- ping:
				interval = time.Duration(float64(interval) * keepaliveGrowth)
				if interval > keepaliveCeiling {
					interval = keepaliveCeiling
				}
			case <-c.done:
				return
			}
			timer.Reset(interval)
		case <-c.done:
			return
		}
	}
}

// SendMessage queues one message on this client, best effort.
func (c *Client) SendMessage(msg models.SocketMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}
