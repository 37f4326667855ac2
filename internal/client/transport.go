package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// CloseNormal is the close code of an intentional disconnect. Any other
	// code triggers a reconnect.
	CloseNormal = websocket.CloseNormalClosure

	writeWait = 10 * time.Second
)

// Conn is an open signaling socket.
type Conn interface {
	WriteMessage(data []byte) error
	// ReadMessage blocks for the next text message. After the socket closes
	// it returns an error that CloseCode can inspect.
	ReadMessage() ([]byte, error)
	Close(code int) error
}

// Transport opens signaling sockets.
type Transport interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// CloseCode extracts the websocket close code from a read error. Errors that
// carry no close frame count as abnormal closure.
func CloseCode(err error) int {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return websocket.CloseAbnormalClosure
}

// WebSocketTransport dials with gorilla/websocket.
type WebSocketTransport struct {
	Dialer *websocket.Dialer
	Header http.Header
}

func (t WebSocketTransport) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, t.Header)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex // one writer at a time
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c *wsConn) Close(code int) error {
	c.mu.Lock()
	err := c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), time.Now().Add(writeWait))
	c.mu.Unlock()
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
