package signalhub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP offers with many
	// candidates run to tens of kilobytes.
	maxMessageSize = 64 * 1024

	// DefaultQueueSize is the outbound queue length per connection.
	DefaultQueueSize = 256
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	Conn *websocket.Conn
	Hub  *ManagerService

	mu      sync.Mutex // serializes Enqueue and Close
	send    chan []byte
	closed  bool
	dropped int
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, queueSize int) *WebSocketClient {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &WebSocketClient{
		Conn: conn,
		Hub:  hub,
		send: make(chan []byte, queueSize),
	}
}

func (c *WebSocketClient) RemoteAddr() string { return c.Conn.RemoteAddr().String() }

// Run registers the client with the hub and starts its pumps.
func (c *WebSocketClient) Run() {
	c.Hub.Register(c)
	go c.writePump()
	go c.readPump()
}

func (c *WebSocketClient) Enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	for {
		select {
		case c.send <- msg:
			return true
		default:
		}
		// Queue full: drop the oldest message. writePump may drain
		// concurrently, so the receive is non-blocking too.
		select {
		case <-c.send:
			c.dropped++
			if c.dropped == 1 || c.dropped%100 == 0 {
				logrus.WithFields(logrus.Fields{"remote_addr": c.RemoteAddr(), "dropped": c.dropped}).Warn("Slow signaling receiver, dropping oldest queued message")
			}
		default:
		}
	}
}

// Close closes the send queue, which makes writePump send a close frame and
// shut the connection down.
func (c *WebSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logrus.WithField("remote_addr", c.RemoteAddr()).WithError(err).Warn("Unexpected websocket close")
			}
			break
		}
		if messageType != websocket.TextMessage {
			logrus.WithField("remote_addr", c.RemoteAddr()).Debugf("Ignoring non-text frame (type %d)", messageType)
			continue
		}
		// Any message counts as liveness, including application pings.
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		c.Hub.HandleMessage(c, message)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			// One JSON document per frame; browsers parse each frame separately.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithField("remote_addr", c.RemoteAddr()).WithError(err).Debug("Websocket write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
